package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	// embedded zone database for timeline.time_zone on hosts without one
	_ "time/tzdata"

	"github.com/urfave/cli/v2"

	"github.com/belphemur/shop-timeline/internal/constants"
	"github.com/belphemur/shop-timeline/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Determine if we're in development mode
	isDev := os.Getenv("ENV") != "production"
	logging.Initialize(isDev)
	logger := logging.GetLogger("main")

	// Create context that's canceled on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("Received signal, initiating shutdown")
		cancel()
	}()

	if err := createCliApp(isDev).RunContext(ctx, os.Args); err != nil {
		logger.Fatal().Err(err).Msg("Application run failed")
	}
}

// createCliApp builds the command tree. serve is the default action.
func createCliApp(isDev bool) *cli.App {
	return &cli.App{
		Name:    constants.AppName,
		Version: version,
		Usage:   "Work-order timeline for shop-floor work centers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML configuration file; defaults and environment variables apply without one",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Action: serveCommand,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the timeline JSON API",
				Action: serveCommand,
			},
			{
				Name:  "tui",
				Usage: "Browse and edit the timeline in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "scale",
						Usage: "Initial timescale: day, week or month (default from configuration)",
					},
					&cli.StringFlag{
						Name:  "log-file",
						Usage: "Where to write logs while the terminal is in use (default next to the state file)",
					},
				},
				Action: func(c *cli.Context) error {
					return tuiCommand(c, isDev)
				},
			},
			{
				Name:      "import",
				Usage:     "Replace the board with a sample-data document",
				ArgsUsage: "<file.json>",
				Action:    importCommand,
			},
			{
				Name:      "export",
				Usage:     "Write the board as a sample-data document",
				ArgsUsage: "<file.json|->",
				Action:    exportCommand,
			},
			{
				Name:    "version",
				Aliases: []string{"v"},
				Usage:   "Show build information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "%s %s (commit %s, built %s)\n", constants.AppName, version, commit, date)
					return nil
				},
			},
		},
	}
}
