package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/swipereader/internal/document"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/config"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/swipereader/internal/surface"
	"github.com/GriffinCanCode/swipereader/internal/surface/chrome"
	"github.com/GriffinCanCode/swipereader/internal/surface/sandbox"
)

// NewDriver builds the configured surface driver. The returned close func
// releases the driver's resources. tracer may be nil.
func NewDriver(ctx context.Context, cfg config.SurfaceConfig, logger *zap.Logger, metrics *monitoring.Metrics, tracer *tracing.Tracer) (surface.Driver, func() error, error) {
	switch cfg.Driver {
	case "", "sandbox":
		loader := document.NewLoader(document.LoaderConfig{
			Timeout:           cfg.NavTimeout,
			RequestsPerSecond: cfg.LoaderRPS,
			Tracer:            tracer,
		})
		return sandbox.New(loader, logger, metrics), func() error { return nil }, nil

	case "chrome":
		d, err := chrome.New(ctx, chrome.Config{
			Bin:          cfg.ChromeBin,
			Headless:     cfg.ChromeHeadless,
			NavTimeout:   cfg.NavTimeout,
			Observe:      cfg.Observe,
			PollInterval: cfg.PollInterval,
		}, logger, metrics)
		if err != nil {
			return nil, nil, fmt.Errorf("start chrome driver: %w", err)
		}
		return d, d.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown surface driver %q", cfg.Driver)
	}
}
