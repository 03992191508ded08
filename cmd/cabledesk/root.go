package main

import (
	"context"
	"strings"

	obscontext "github.com/smallbiznis/cabledesk/internal/observability/context"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	operator string
	role     string
}

func newRootCommand(run appRunner) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "cabledesk",
		Short:        "Subscriber administration for cable and broadband operators",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.operator, "operator", "", "operator name recorded on writes (default from DEFAULT_OPERATOR)")
	cmd.PersistentFlags().StringVar(&opts.role, "role", "", "operator role: viewer, operator or admin (default from DEFAULT_OPERATOR_ROLE)")

	cmd.AddCommand(
		newServeCommand(),
		newImportCommand(run, opts),
		newTemplateCommand(),
		newListCommand(run, opts),
		newReportCommand(run, opts),
		newDeleteCommand(run, opts),
		newSeedCommand(run, opts),
	)
	return cmd
}

// withOperator resolves the acting operator from flags or config, puts it on
// ctx and checks that it may perform action.
func (o *rootOptions) withOperator(ctx context.Context, rt runtime, object, action string) (context.Context, error) {
	name := strings.TrimSpace(o.operator)
	role := strings.ToLower(strings.TrimSpace(o.role))
	if name == "" {
		name = rt.Config.DefaultOperator
	}
	if role == "" {
		role = rt.Config.DefaultOperatorRole
	}

	operator := obscontext.Operator{Name: name, Role: role}
	ctx = obscontext.WithOperator(ctx, operator)
	if err := rt.Authz.Authorize(ctx, operator, object, action); err != nil {
		return ctx, err
	}
	return ctx, nil
}

func operatorName(ctx context.Context) string {
	operator, _ := obscontext.OperatorFromContext(ctx)
	return operator.Name
}
