package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-testslot-api/internal/app"
	"github.com/noah-isme/sma-testslot-api/pkg/config"
	"github.com/noah-isme/sma-testslot-api/pkg/logger"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// Env supplies configuration and an opened application to commands.
type Env struct {
	LoadConfig func() (*config.Config, error)
	Open       func(ctx context.Context, cfg *config.Config) (*app.App, error)
	Timeout    time.Duration
}

// DefaultEnv loads configuration from the environment and connects the
// configured store.
func DefaultEnv() Env {
	return Env{
		LoadConfig: config.Load,
		Open: func(ctx context.Context, cfg *config.Config) (*app.App, error) {
			logr, err := logger.New(cfg)
			if err != nil {
				return nil, fmt.Errorf("init logger: %w", err)
			}
			return app.New(ctx, cfg, logr.WithOptions(zap.IncreaseLevel(zap.WarnLevel)))
		},
		Timeout: 30 * time.Second,
	}
}

type rootOptions struct {
	env    Env
	output string
}

// NewRootCommand builds the testslotctl command tree.
func NewRootCommand(env Env) *cobra.Command {
	opts := &rootOptions{env: env}
	if opts.env.Timeout <= 0 {
		opts.env.Timeout = 30 * time.Second
	}

	root := &cobra.Command{
		Use:           "testslotctl",
		Short:         "Resolve test periods and schedule tests against the timetable",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != outputText && opts.output != outputJSON {
				return fmt.Errorf("unsupported output %q (text or json)", opts.output)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", outputText, "output format: text or json")

	root.AddCommand(
		newTeachersCommand(opts),
		newCoursesCommand(opts),
		newPeriodsCommand(opts),
		newScheduleCommand(opts),
		newTestsCommand(opts),
		newExportCommand(opts),
		newTokenCommand(opts),
		newMigrateCommand(opts),
	)
	return root
}

// Execute runs the CLI with signal-aware cancellation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(DefaultEnv())
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		return err
	}
	return nil
}

// withApp loads configuration, opens the application for the duration of fn
// and closes it afterwards.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := o.env.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), o.env.Timeout)
	defer cancel()

	a, err := o.env.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.Background()); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error while closing store: %v\n", cerr)
		}
	}()
	return fn(ctx, a)
}

func (o *rootOptions) printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (o *rootOptions) printLines(w io.Writer, lines []string) error {
	if o.output == outputJSON {
		return o.printJSON(w, lines)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
