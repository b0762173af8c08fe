package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/profilgusto/sim-biorreator/internal/logging"
)

// DefaultTickInterval is the wall-clock cadence of the live loop.
const DefaultTickInterval = 200 * time.Millisecond

// Driver steps the shared simulator on a fixed cadence and forwards every
// resulting frame to its publishers.
type Driver struct {
	sim        *Simulator
	clock      clockwork.Clock
	interval   time.Duration
	publishers []Publisher
	log        *slog.Logger
}

// NewDriver builds a driver. A non-positive interval falls back to
// DefaultTickInterval.
func NewDriver(sim *Simulator, clock clockwork.Clock, interval time.Duration, publishers ...Publisher) *Driver {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Driver{
		sim:        sim,
		clock:      clock,
		interval:   interval,
		publishers: publishers,
		log:        logging.WithComponent("driver"),
	}
}

// Interval returns the wall-clock tick cadence.
func (d *Driver) Interval() time.Duration { return d.interval }

// Run blocks until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) {
	ticker := d.clock.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Info("Simulation loop started", "interval", d.interval.String())
	for {
		select {
		case <-ctx.Done():
			d.log.Info("Simulation loop stopped")
			return
		case <-ticker.Chan():
			d.tick(ctx)
		}
	}
}

func (d *Driver) tick(ctx context.Context) {
	frame := d.sim.Tick(d.interval)
	for _, p := range d.publishers {
		err := p.Publish(ctx, frame)
		switch {
		case err == nil:
		case errors.Is(err, ErrPublisherOffline):
			d.log.DebugContext(ctx, "Publisher offline", "publisher", fmt.Sprintf("%T", p), "error", err)
		default:
			d.log.WarnContext(ctx, "Publish failed", "publisher", fmt.Sprintf("%T", p), "error", err)
		}
	}
}
