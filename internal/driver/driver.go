package driver

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	DefaultTickLength = time.Millisecond * 50
)

type Ticker interface {
	Tick(context.Context) error
}

// Driver owns the tick loop. Everything that mutates game state runs inside
// a Tick call.
type Driver struct {
	tickLength time.Duration
	tickers    []Ticker
	ticks      atomic.Uint64
	overruns   atomic.Uint64
}

func NewDriver(tickers []Ticker, opts ...DriverOpt) *Driver {
	d := &Driver{
		tickLength: DefaultTickLength,
		tickers:    tickers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Driver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	slog.InfoContext(ctx, "driver started", "tick", d.tickLength)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "driver stopped", "ticks", d.Ticks(), "overruns", d.overruns.Load())
			return nil
		case <-ticker.C:
			start := time.Now()
			err := d.Tick(ctx)
			if err != nil {
				return err
			}
			if took := time.Since(start); took > d.tickLength {
				d.overruns.Add(1)
				slog.WarnContext(ctx, "tick overran", "tick", d.Ticks(), "took", took)
			}
		}
	}
}

// Tick runs one tick on every ticker in order, stopping at the first error.
func (d *Driver) Tick(ctx context.Context) error {
	n := d.ticks.Add(1)
	for i, t := range d.tickers {
		if err := t.Tick(ctx); err != nil {
			return fmt.Errorf("tick %d ticker %d: %w", n, i, err)
		}
	}
	return nil
}

// Ticks returns the number of ticks run so far.
func (d *Driver) Ticks() uint64 {
	return d.ticks.Load()
}
