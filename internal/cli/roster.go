package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-testslot-api/internal/app"
)

func newTeachersCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "teachers",
		Short: "List teachers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				teachers, err := a.Roster.ListTeachers(ctx)
				if err != nil {
					return err
				}
				return opts.printLines(cmd.OutOrStdout(), teachers)
			})
		},
	}
}

func newCoursesCommand(opts *rootOptions) *cobra.Command {
	var teacher string
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List courses taught by a teacher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				courses, err := a.Roster.ListCourses(ctx, teacher)
				if err != nil {
					return err
				}
				return opts.printLines(cmd.OutOrStdout(), courses)
			})
		},
	}
	cmd.Flags().StringVar(&teacher, "teacher", "", "teacher name")
	_ = cmd.MarkFlagRequired("teacher")
	return cmd
}

func newTestsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tests",
		Short: "List scheduled tests by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				tests, err := a.Roster.ListScheduledTests(ctx)
				if err != nil {
					return err
				}
				if opts.output == outputJSON {
					return opts.printJSON(cmd.OutOrStdout(), tests)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DATE\tSUBJECT\tTEACHER\tPERIOD")
				for _, test := range tests {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", test.Date, test.Subject, test.Teacher, test.Period)
				}
				return tw.Flush()
			})
		},
	}
}
