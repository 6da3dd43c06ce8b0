package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-testslot-api/internal/app"
	"github.com/noah-isme/sma-testslot-api/internal/service"
	"github.com/noah-isme/sma-testslot-api/migrations"
	"github.com/noah-isme/sma-testslot-api/pkg/config"
	"github.com/noah-isme/sma-testslot-api/pkg/database"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export scheduled tests as CSV or PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				file, err := a.Exports.ExportScheduledTests(ctx, format)
				if err != nil {
					return err
				}
				if out == "-" {
					_, err := cmd.OutOrStdout().Write(file.Body)
					return err
				}
				path := out
				if path == "" {
					path = file.Filename
				}
				if err := os.WriteFile(path, file.Body, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", path, len(file.Body))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "csv or pdf")
	cmd.Flags().StringVar(&out, "out", "", "destination path, - for stdout (defaults to a timestamped file name)")
	return cmd
}

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var teacher string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a teacher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.env.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			issued, err := service.NewTokenService(cfg.Auth.Secret, cfg.Auth.Expiration).IssueToken(teacher)
			if err != nil {
				return err
			}
			if opts.output == outputJSON {
				return opts.printJSON(cmd.OutOrStdout(), issued)
			}
			fmt.Fprintln(cmd.OutOrStdout(), issued.Token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", time.Unix(issued.ExpiresAt, 0).UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&teacher, "teacher", "", "teacher name")
	_ = cmd.MarkFlagRequired("teacher")
	return cmd
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the timetable schema (PostgreSQL) or constraints (Neo4j)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.env.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.env.Timeout)
			defer cancel()

			if cfg.Store.Driver == config.StoreDriverNeo4j {
				// Opening the app installs the constraints.
				return opts.withApp(cmd, func(context.Context, *app.App) error {
					fmt.Fprintln(cmd.OutOrStdout(), "neo4j constraints ensured")
					return nil
				})
			}

			db, err := database.NewPostgres(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer db.Close()
			if err := migrations.Up(ctx, db); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
