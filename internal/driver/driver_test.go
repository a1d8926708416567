package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

type countingTicker struct {
	calls int
	err   error
}

func (c *countingTicker) Tick(context.Context) error {
	c.calls++
	return c.err
}

func TestDriver_Tick(t *testing.T) {
	tests := map[string]struct {
		firstErr  error
		expErr    string
		expSecond int
	}{
		"all tickers run": {
			expSecond: 1,
		},
		"error stops the tick": {
			firstErr:  errors.New("boom"),
			expErr:    "tick 1 ticker 0: boom",
			expSecond: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			first := &countingTicker{err: tt.firstErr}
			second := &countingTicker{}
			d := NewDriver([]Ticker{first, second})

			err := d.Tick(context.Background())
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "first", first.calls, 1)
			testutil.AssertEqual(t, "second", second.calls, tt.expSecond)
			testutil.AssertEqual(t, "ticks", d.Ticks(), uint64(1))
		})
	}
}

func TestDriver_StartRunsScheduler(t *testing.T) {
	sched := NewScheduler()
	d := NewDriver([]Ticker{sched}, WithTickLength(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- d.Start(ctx)
	}()

	err := sched.Do(ctx, "noop", func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancel()
	err = <-done
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Ticks() == 0 {
		t.Errorf("expected at least one tick")
	}
}

func TestWithTickLength_IgnoresNonPositive(t *testing.T) {
	d := NewDriver(nil, WithTickLength(0))
	testutil.AssertEqual(t, "tick length", d.tickLength, DefaultTickLength)
}
