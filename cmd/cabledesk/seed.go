package main

import (
	"fmt"

	"github.com/smallbiznis/cabledesk/internal/authorization"
	"github.com/smallbiznis/cabledesk/internal/seed"
	"github.com/spf13/cobra"
)

func newSeedCommand(run appRunner, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create a demo roster when the store is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(rt runtime) error {
				ctx, err := opts.withOperator(cmd.Context(), rt, authorization.ObjectSubscriber, authorization.ActionSubscriberCreate)
				if err != nil {
					return err
				}

				created, err := seed.EnsureDemoRoster(ctx, rt.Subscribers)
				if err != nil {
					return err
				}
				if created == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "store already has subscribers, nothing seeded")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d subscribers\n", created)
				return nil
			})
		},
	}
}
