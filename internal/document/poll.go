package document

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/swipereader/internal/shared/utils"
)

// Poller derives change notifications by hashing periodic snapshots of a
// document that offers no change primitive of its own.
type Poller struct {
	Document

	interval time.Duration
	hasher   *utils.Hasher
	changes  chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
}

// Poll starts polling doc every interval until Close.
func Poll(ctx context.Context, doc Document, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(ctx)

	p := &Poller{
		Document: doc,
		interval: interval,
		hasher:   utils.DefaultHasher(),
		changes:  make(chan struct{}, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go p.run(ctx)
	return p
}

// Changes fires when the snapshot hash or the generation differs from the
// previous poll.
func (p *Poller) Changes() <-chan struct{} { return p.changes }

// Close stops polling and closes the wrapped document.
func (p *Poller) Close() error {
	var err error
	p.once.Do(func() {
		p.cancel()
		<-p.done
		err = p.Document.Close()
	})
	return err
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	last, lastGen := "", p.Document.Generation()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		gen := p.Document.Generation()
		snap, err := p.Document.Snapshot(ctx)
		if err != nil {
			continue
		}
		markup, err := snap.Html()
		if err != nil {
			continue
		}
		sum := p.hasher.HashString(markup)
		if sum == last && gen == lastGen {
			continue
		}
		last, lastGen = sum, gen

		select {
		case p.changes <- struct{}{}:
		default:
		}
	}
}
