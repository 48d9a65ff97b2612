package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/swipereader/internal/bridge"
	"github.com/GriffinCanCode/swipereader/internal/content"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/swipereader/internal/server"
	"github.com/GriffinCanCode/swipereader/internal/session"
	"github.com/GriffinCanCode/swipereader/internal/shared/id"
	"github.com/GriffinCanCode/swipereader/internal/shared/utils"
	"github.com/GriffinCanCode/swipereader/internal/surface"
)

// defaultExtractWait bounds extract when --timeout is not given.
const defaultExtractWait = 30 * time.Second

var extractKind string

var extractCmd = &cobra.Command{
	Use:   "extract <path>",
	Short: "Open one page and print its first extracted message as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractKind, "kind", "k", "listing", "Message kind to wait for")
}

func runExtract(cmd *cobra.Command, args []string) error {
	path := args[0]
	if err := utils.ValidatePath(path); err != nil {
		return err
	}
	kind, err := bridge.ParseKind(extractKind)
	if err != nil {
		return err
	}
	origin, err := url.Parse(cfg.Surface.Origin)
	if err != nil {
		return fmt.Errorf("invalid origin: %w", err)
	}
	uri, err := session.Resolve(origin, path)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		var c context.CancelFunc
		ctx, c = context.WithTimeout(ctx, defaultExtractWait)
		defer c()
	}

	metrics := monitoring.NewMetrics()
	rules, err := content.NewRuleSet(cfg.Extraction.Rules, logger.Logger)
	if err != nil {
		return err
	}
	driver, closeDriver, err := server.NewDriver(ctx, cfg.Surface, logger.Logger, metrics, nil)
	if err != nil {
		return err
	}
	defer closeDriver()

	pool := surface.NewPool(driver, surface.Options{
		Content: content.Options{
			Delay:    cfg.Extraction.Delay,
			MaxDelay: cfg.Extraction.MaxDelay,
		},
		RuleSource: rules.Current,
		Logger:     logger.Logger,
		Metrics:    metrics,
	})
	defer pool.Close()

	found := make(chan bridge.Message, 1)
	failed := make(chan error, 1)
	key := id.NewSurfaceKey().String()
	unsubscribe, err := pool.Open(key, uri, bridge.ObserverFunc(func(_ string, msg bridge.Message) {
		if d, ok := msg.(*bridge.Diagnostic); ok && d.Level == "error" {
			select {
			case failed <- errors.New(d.Message):
			default:
			}
			return
		}
		if msg.Kind() != kind {
			return
		}
		select {
		case found <- msg:
		default:
		}
	}))
	if err != nil {
		return err
	}
	defer unsubscribe()

	select {
	case msg := <-found:
		out, err := sonic.ConfigStd.MarshalIndent(msg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	case err := <-failed:
		return fmt.Errorf("extract %s: %w", uri, err)
	case <-ctx.Done():
		return fmt.Errorf("no %s message from %s: %w", kind, uri, ctx.Err())
	}
}
