// Package chrome hosts surfaces as real pages in a headless Chrome through
// go-rod. Change notifications come from a MutationObserver that calls back
// into the host over an exposed binding, or from snapshot polling.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/swipereader/internal/document"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/monitoring"
)

// Observe modes.
const (
	ObserveNative = "native"
	ObservePoll   = "poll"
)

// Config controls the browser and its pages.
type Config struct {
	Bin          string
	Headless     bool
	NavTimeout   time.Duration
	Observe      string
	PollInterval time.Duration
}

// DefaultConfig returns a headless, natively observed setup.
func DefaultConfig() Config {
	return Config{
		Headless:     true,
		NavTimeout:   30 * time.Second,
		Observe:      ObserveNative,
		PollInterval: 500 * time.Millisecond,
	}
}

// Driver owns one browser process shared by every surface it opens.
type Driver struct {
	cfg      Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	mu     sync.Mutex
	closed bool
}

// New launches Chrome and connects to it. Pages share one incognito
// context so cookies persist across surfaces but not across runs.
func New(ctx context.Context, cfg Config, logger *zap.Logger, metrics *monitoring.Metrics) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = DefaultConfig().NavTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}

	l := launcher.New().Headless(cfg.Headless)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	incognito, err := browser.Incognito()
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("incognito context: %w", err)
	}

	logger.Named("chrome").Info("Browser connected", zap.String("control_url", controlURL), zap.Bool("headless", cfg.Headless))
	return &Driver{
		cfg:      cfg,
		launcher: l,
		browser:  incognito,
		logger:   logger.Named("chrome"),
		metrics:  metrics,
	}, nil
}

// Open creates a page, installs change observation and navigates to uri.
func (d *Driver) Open(ctx context.Context, uri string) (document.Document, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, errors.New("chrome driver is closed")
	}

	timer := monitoring.NewTimer(d.metrics, "chrome", "open")
	page, err := d.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		timer.Stop("error")
		return nil, fmt.Errorf("create page: %w", err)
	}

	p := newPage(uri, page, d.cfg.NavTimeout)
	if d.cfg.Observe != ObservePoll {
		if err := p.observe(); err != nil {
			_ = p.Close()
			timer.Stop("error")
			return nil, err
		}
	}

	if err := page.Context(ctx).Timeout(d.cfg.NavTimeout).Navigate(uri); err != nil {
		_ = p.Close()
		timer.Stop("error")
		return nil, fmt.Errorf("navigate %s: %w", uri, err)
	}
	if err := page.Context(ctx).Timeout(d.cfg.NavTimeout).WaitLoad(); err != nil {
		d.logger.Debug("Page load did not settle", zap.String("uri", uri), zap.Error(err))
	}
	p.trackNavigations()
	timer.Stop("success")

	if d.cfg.Observe == ObservePoll {
		return document.Poll(context.Background(), p, d.cfg.PollInterval), nil
	}
	return p, nil
}

// Close shuts the browser down.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	err := d.browser.Close()
	d.launcher.Kill()
	d.launcher.Cleanup()
	return err
}
