package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cabledesk/internal/authorization"
	"github.com/smallbiznis/cabledesk/internal/providers/pdf"
	subscriberdomain "github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/smallbiznis/cabledesk/internal/subscriber/importer"
	"github.com/smallbiznis/cabledesk/internal/subscriber/view"
	"github.com/spf13/cobra"
)

func newImportCommand(run appRunner, opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Bulk import subscribers from a .xlsx or .csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(rt runtime) error {
				ctx, err := opts.withOperator(cmd.Context(), rt, authorization.ObjectSubscriber, authorization.ActionSubscriberImport)
				if err != nil {
					return err
				}

				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer file.Close()

				summary, err := rt.Subscribers.Import(ctx, subscriberdomain.ImportRequest{
					Filename: filepath.Base(args[0]),
					Body:     file,
					Operator: operatorName(ctx),
					DryRun:   dryRun,
				})
				printImportSummary(cmd.OutOrStdout(), summary)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "decode and validate without writing")
	return cmd
}

func printImportSummary(w io.Writer, summary subscriberdomain.ImportSummary) {
	verb := "imported"
	if summary.DryRun {
		verb = "would import"
	}
	fmt.Fprintf(w, "%s %d of %d rows", verb, summary.Imported, summary.Rows)
	if summary.BatchID != "" {
		fmt.Fprintf(w, " (batch %s)", summary.BatchID)
	}
	fmt.Fprintln(w)
	for _, skipped := range summary.Skipped {
		fmt.Fprintf(w, "  row %d skipped: %s\n", skipped.Row, skipped.Reason)
	}
}

func newTemplateCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the bulk import CSV template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := importer.TemplateCSV()
			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(body)
				return err
			}
			return os.WriteFile(output, body, 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}

type viewFlags struct {
	search   string
	area     string
	feeRange string
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "case-insensitive match on name, phone, address, area or code")
	cmd.Flags().StringVar(&f.area, "area", view.AllAreas, "exact area, or all")
	cmd.Flags().StringVar(&f.feeRange, "fee-range", string(view.FeeAll), "all, low, medium or high")
}

func (f *viewFlags) derive(ctx context.Context, rt runtime) (view.View, view.State, error) {
	feeRange, err := view.ParseFeeRange(f.feeRange)
	if err != nil {
		return view.View{}, view.State{}, err
	}

	records, err := rt.Subscribers.List(ctx)
	if err != nil {
		return view.View{}, view.State{}, err
	}

	brackets := rt.Catalog.Get().FeeBrackets
	state := view.NewState().
		WithSearch(f.search).
		WithArea(f.area).
		WithFeeRange(feeRange).
		WithBrackets(view.Brackets{MediumFrom: brackets.MediumFrom, HighFrom: brackets.HighFrom})
	return view.Derive(records, state), state, nil
}

func newListCommand(run appRunner, opts *rootOptions) *cobra.Command {
	var (
		flags  viewFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subscribers with optional filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(rt runtime) error {
				ctx, err := opts.withOperator(cmd.Context(), rt, authorization.ObjectSubscriber, authorization.ActionSubscriberView)
				if err != nil {
					return err
				}

				v, _, err := flags.derive(ctx, rt)
				if err != nil {
					return err
				}
				if output == "json" {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(v)
				}
				printView(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "table", "table or json")
	return cmd
}

func printView(w io.Writer, v view.View) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Code", "Name", "Mobile", "Area", "Provider", "Fee", "Connected", "Status"})
	for _, s := range v.Subscribers {
		t.AppendRow(table.Row{
			s.ID.String(),
			s.SubscriberCode,
			s.Name,
			s.Phone,
			s.Area,
			s.ServiceProvider,
			decimal.NewFromFloat(s.MonthlyFee).StringFixed(2),
			s.ConnectionDateString(),
			string(s.Status),
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d shown", len(v.Subscribers))})
	t.Render()

	fmt.Fprintf(w, "total %d  active %d  monthly revenue %s\n", v.Stats.Total, v.Stats.Active, v.Stats.TotalRevenueDisplay)
}

func newReportCommand(run appRunner, opts *rootOptions) *cobra.Command {
	var (
		flags  viewFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the filtered roster as a PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(rt runtime) error {
				ctx, err := opts.withOperator(cmd.Context(), rt, authorization.ObjectSubscriber, authorization.ActionSubscriberExport)
				if err != nil {
					return err
				}

				v, state, err := flags.derive(ctx, rt)
				if err != nil {
					return err
				}
				doc, err := rt.Reports.GenerateRoster(ctx, pdf.RosterData{
					GeneratedAt: rt.Clock.Now(),
					Search:      state.Search(),
					Area:        state.Area(),
					FeeRange:    string(state.FeeRange()),
					View:        v,
				})
				if err != nil {
					return err
				}

				file, err := os.Create(output)
				if err != nil {
					return err
				}
				if _, err := io.Copy(file, doc); err != nil {
					_ = file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d subscribers)\n", output, len(v.Subscribers))
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "subscribers.pdf", "file to write")
	return cmd
}

var errDeleteAborted = errors.New("delete aborted")

func newDeleteCommand(run appRunner, opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a subscriber",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(rt runtime) error {
				ctx, err := opts.withOperator(cmd.Context(), rt, authorization.ObjectSubscriber, authorization.ActionSubscriberDelete)
				if err != nil {
					return err
				}

				confirmed := yes
				if !confirmed {
					confirmed = confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete subscriber %s? [y/N] ", args[0]))
				}
				if !confirmed {
					return errDeleteAborted
				}

				if err := rt.Subscribers.Delete(ctx, subscriberdomain.DeleteSubscriberRequest{ID: args[0], Confirmed: true}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
