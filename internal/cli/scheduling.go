package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-testslot-api/internal/app"
	"github.com/noah-isme/sma-testslot-api/internal/dto"
)

func newPeriodsCommand(opts *rootOptions) *cobra.Command {
	var subject, date string
	cmd := &cobra.Command{
		Use:   "periods",
		Short: "Show the periods open for a test on a future date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.Availability.Resolve(ctx, dto.PeriodsQuery{Subject: subject, Date: date})
				if err != nil {
					return err
				}
				if opts.output == outputJSON {
					return opts.printJSON(cmd.OutOrStdout(), result)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s on %s (%s):\n", result.Subject, result.Date, result.Weekday)
				for i, period := range result.Periods {
					fmt.Fprintf(out, "%d. %s\n", i+1, period)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "course name")
	cmd.Flags().StringVar(&date, "date", "", "date in YYYY-MM-DD form")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newScheduleCommand(opts *rootOptions) *cobra.Command {
	var req dto.ScheduleTestRequest
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a test in one of the resolved periods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				scheduled, err := a.Scheduling.ScheduleTest(ctx, req)
				if err != nil {
					return err
				}
				if opts.output == outputJSON {
					return opts.printJSON(cmd.OutOrStdout(), scheduled)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Test scheduled for %s on %s during %s.\n", scheduled.Subject, scheduled.Date, scheduled.Period)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Teacher, "teacher", "", "teacher name")
	cmd.Flags().StringVar(&req.Subject, "subject", "", "course name")
	cmd.Flags().StringVar(&req.Date, "date", "", "date in YYYY-MM-DD form")
	cmd.Flags().StringVar(&req.Period, "period", "", "period descriptor as printed by the periods command")
	for _, name := range []string{"teacher", "subject", "date", "period"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
