package bridge

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/swipereader/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/swipereader/internal/shared/types"
)

// ErrNotReady is returned by targets whose page context cannot take
// statements yet.
var ErrNotReady = errors.New("surface is not ready")

// Observer receives messages from one surface.
type Observer interface {
	Observe(key string, msg Message)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(key string, msg Message)

func (f ObserverFunc) Observe(key string, msg Message) { f(key, msg) }

// Target is a live surface as seen by the router: it can run dispatcher
// statements and knows its own observers.
type Target interface {
	types.Injector
	Observers() []Observer
}

// Directory resolves surface keys. A false result means the surface was
// collected or never existed.
type Directory interface {
	Lookup(key string) (Target, bool)
}

// Router moves envelopes from surfaces to their observers and capability
// calls from the host back into surfaces.
type Router struct {
	dir     Directory
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewRouter creates a router over dir.
func NewRouter(dir Directory, logger *zap.Logger, metrics *monitoring.Metrics) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{dir: dir, logger: logger.Named("bridge"), metrics: metrics}
}

// Deliver routes one raw envelope from the surface key. Messages for unknown
// keys are dropped silently; malformed ones are logged and dropped.
func (r *Router) Deliver(key string, raw []byte) {
	target, ok := r.dir.Lookup(key)
	if !ok {
		r.logger.Debug("Dropping envelope for collected surface", zap.String("surface", key))
		r.metrics.EnvelopeDropped("pool_miss")
		return
	}

	msg, err := Parse(raw, target)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, ErrUnknownKind) {
			reason = "unknown_kind"
		}
		r.logger.Warn("Dropping envelope", zap.String("surface", key), zap.String("reason", reason), zap.Error(err))
		r.metrics.EnvelopeDropped(reason)
		return
	}

	for _, obs := range target.Observers() {
		obs.Observe(key, msg)
	}
	r.metrics.EnvelopeDelivered(msg.Kind().String())
}

// Invoke calls the capability name on surface key with args. A collected
// surface makes this a no-op. Every call is counted once, by outcome.
func (r *Router) Invoke(ctx context.Context, key, name string, args ...any) error {
	target, ok := r.dir.Lookup(key)
	if !ok {
		r.logger.Debug("Ignoring invocation on collected surface", zap.String("surface", key), zap.String("capability", name))
		r.metrics.CapabilityInvoked("stale")
		return nil
	}

	err := types.NewRef(name, target).Invoke(ctx, args...)
	switch {
	case err == nil:
		r.metrics.CapabilityInvoked("ok")
	case errors.Is(err, ErrNotReady):
		r.metrics.CapabilityInvoked("not_ready")
	default:
		r.metrics.CapabilityInvoked("error")
	}
	return err
}
