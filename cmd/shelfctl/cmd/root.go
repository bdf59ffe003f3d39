// Package cmd contains the shelfctl commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"readingshelf/internal/app"
	"readingshelf/internal/config"
	"readingshelf/internal/logger"
)

var (
	verbose bool
	noColor bool
	svc     *app.App
)

var rootCmd = &cobra.Command{
	Use:   "shelfctl",
	Short: "Inspect the reading shelf and its cover pipeline",
	Long: `shelfctl runs the same feed and cover pipeline as the API server,
using the same environment and .env configuration.

Example usage:
  shelfctl feed                       # Print the current shelf
  shelfctl feed --json                # Print the shelf as JSON
  shelfctl normalize <url>...         # Show normalized cover URLs
  shelfctl cover --url U --title T    # Resolve one cover and save it`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp()
	},
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline steps to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func initApp() error {
	if noColor {
		color.NoColor = true
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	svc = app.New(cfg, logger.New(os.Stderr, level, "text"))
	return nil
}
