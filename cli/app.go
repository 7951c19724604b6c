// Package cli provides the animectl command-line interface over the Jikan client.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/animedata/jikan"
)

// Version information set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions are the persistent flags shared by every query command.
type globalOptions struct {
	configPath string
	page       int
	logLevel   string
}

// App represents the CLI application.
type App struct {
	root       *cobra.Command
	stdout     io.Writer
	stderr     io.Writer
	opts       globalOptions
	clientOpts []jikan.Option
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "animectl",
		Short: "Query anime data from the Jikan API",
		Long: `animectl reads anime metadata from the Jikan v4 API through a cached,
rate-aware client. Throttled requests are retried transparently and results
are printed as JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := app.root.PersistentFlags()
	flags.StringVarP(&app.opts.configPath, "config", "c", "", "Path to configuration file")
	flags.IntVarP(&app.opts.page, "page", "p", 1, "Result page")
	flags.StringVar(&app.opts.logLevel, "log-level", "", "Log level override (debug|info|warn|error)")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newTopCmd(),
		app.newUpcomingCmd(),
		app.newAnimeCmd(),
		app.newSearchCmd(),
		app.newRecommendationsCmd(),
		app.newReviewsCmd(),
		app.newSeasonalCmd(),
		app.newScheduleCmd(),
		app.newNewsCmd(),
		app.newHealthCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// WithClientOptions appends options applied to every client the app builds.
func (a *App) WithClientOptions(opts ...jikan.Option) *App {
	a.clientOpts = append(a.clientOpts, opts...)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(a.stdout, "animectl version %s\n", Version)
			_, _ = fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			_, _ = fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
