// Package cleaner runs the periodic expiry sweep. It is best-effort
// reclamation: reads already mask expired entries, so a missed tick costs
// disk, not correctness.
package cleaner

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

type Cleaner struct {
	sweeper  Sweeper
	interval time.Duration
	log      *zerolog.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewCleaner(sweeper Sweeper, interval time.Duration, log *zerolog.Logger) *Cleaner {
	return &Cleaner{
		sweeper:  sweeper,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. It runs until Stop is called or the
// context is canceled.
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Cleaner) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep(ctx)
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		}
	}
}

// sweep runs one tick. A failed tick is logged and abandoned; the next
// interval retries.
func (c *Cleaner) sweep(ctx context.Context) {
	removed, err := c.sweeper.SweepExpired(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("sweep tick failed")
		return
	}

	if removed > 0 {
		c.log.Info().Int("removed", removed).Msg("swept expired entries")
	}
}

// Stop terminates the loop and waits for an in-flight tick to finish.
func (c *Cleaner) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
}
