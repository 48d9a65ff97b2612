// Command swipereader serves swipe-navigated reader sessions over HTTP and
// WebSocket, and extracts structured content from single pages.
//
// Usage:
//
//	# Serve the API (configuration from environment)
//	swipereader serve --port 8000
//
//	# Extract the listing from one page and print it as JSON
//	swipereader extract /r/golang --kind listing
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/swipereader/internal/infrastructure/config"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/logging"
)

var (
	// Global flags
	verbose bool
	dev     bool

	cfg    *config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:           "swipereader",
	Short:         "Swipe-navigated reader with live content extraction",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if dev {
			cfg.Logging.Development = true
		}
		logger = logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&dev, "dev", false, "Development logging (console encoder)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Overall deadline (0 for none)")

	rootCmd.AddCommand(serveCmd, extractCmd)
}

// commandContext returns a context cancelled by SIGINT/SIGTERM and by the
// --timeout flag when set.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
