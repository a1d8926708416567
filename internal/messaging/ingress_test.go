package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/katacr/go-oneblock/internal/driver"
	"github.com/katacr/go-oneblock/internal/game"
	"github.com/katacr/go-oneblock/internal/progress"
	"github.com/katacr/go-oneblock/internal/world"
	"github.com/pixil98/go-testutil"
)

const playerID = "6f1c2f4e-7d0a-4b8e-9a51-3c2d1e0f9a10"

type loopbackBus struct {
	handlers map[string]func([]byte)
}

func (b *loopbackBus) WaitReady(context.Context) error { return nil }

func (b *loopbackBus) Subscribe(subject string, handler func([]byte)) (func(), error) {
	b.handlers[subject] = handler
	return func() { delete(b.handlers, subject) }, nil
}

func (b *loopbackBus) send(subject, body string) {
	if h, ok := b.handlers[subject]; ok {
		h([]byte(body))
	}
}

type mockHandler struct {
	calls    []string
	startErr error
}

func (m *mockHandler) HandleBreak(_ context.Context, ev game.BreakEvent) error {
	m.calls = append(m.calls, "break "+ev.Pos.String())
	return nil
}

func (m *mockHandler) Join(_ context.Context, ev game.JoinEvent) progress.Progress {
	m.calls = append(m.calls, "join "+ev.PlayerName)
	return progress.Progress{PlayerID: ev.PlayerID}
}

func (m *mockHandler) StartPlayer(_ context.Context, ev game.StartEvent) (world.OwnedBlock, error) {
	m.calls = append(m.calls, "start "+ev.Pos.World)
	return world.OwnedBlock{}, m.startErr
}

func (m *mockHandler) StopPlayer(_ context.Context, ev game.StopEvent) error {
	m.calls = append(m.calls, "stop "+ev.World)
	return nil
}

type mockNotifier struct {
	msgs []string
}

func (n *mockNotifier) Notify(_ context.Context, _ string, msg string) {
	n.msgs = append(n.msgs, msg)
}

func TestIngress_Events(t *testing.T) {
	tests := map[string]struct {
		subject  string
		body     string
		startErr error
		expCalls []string
		expMsgs  int
	}{
		"break": {
			subject:  SubjectBreak,
			body:     `{"player_id":"` + playerID + `","player_name":"Steve","pos":{"world":"world","x":1,"y":64,"z":2}}`,
			expCalls: []string{"break world(1, 64, 2)"},
		},
		"join": {
			subject:  SubjectJoin,
			body:     `{"player_id":"` + playerID + `","player_name":"Steve"}`,
			expCalls: []string{"join Steve"},
		},
		"start": {
			subject:  SubjectStart,
			body:     `{"player_id":"` + playerID + `","pos":{"world":"world"}}`,
			expCalls: []string{"start world"},
		},
		"start refused": {
			subject:  SubjectStart,
			body:     `{"player_id":"` + playerID + `","pos":{"world":"world"}}`,
			startErr: game.ErrAlreadyStarted,
			expCalls: []string{"start world"},
			expMsgs:  1,
		},
		"stop": {
			subject:  SubjectStop,
			body:     `{"player_id":"` + playerID + `","world":"world"}`,
			expCalls: []string{"stop world"},
		},
		"malformed json": {
			subject: SubjectBreak,
			body:    `{"player_id":`,
		},
		"invalid player": {
			subject: SubjectJoin,
			body:    `{"player_id":"steve"}`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			bus := &loopbackBus{handlers: map[string]func([]byte){}}
			sched := driver.NewScheduler()
			handler := &mockHandler{startErr: tt.startErr}
			notifier := &mockNotifier{}

			in := NewIngress(bus, sched, handler, notifier)
			if err := in.Register(); err != nil {
				t.Fatalf("Register: %v", err)
			}

			bus.send(tt.subject, tt.body)
			testutil.AssertEqual(t, "calls before tick", len(handler.calls), 0)

			if err := sched.Tick(context.Background()); err != nil {
				t.Fatalf("Tick: %v", err)
			}
			testutil.AssertEqual(t, "calls", len(handler.calls), len(tt.expCalls))
			for i := range tt.expCalls {
				testutil.AssertEqual(t, "call", handler.calls[i], tt.expCalls[i])
			}
			testutil.AssertEqual(t, "notifications", len(notifier.msgs), tt.expMsgs)

			in.Close()
			testutil.AssertEqual(t, "subscriptions", len(bus.handlers), 0)
		})
	}
}

type failingBus struct {
	loopbackBus
}

func (b *failingBus) WaitReady(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestIngress_StartNotReady(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := NewIngress(&failingBus{}, driver.NewScheduler(), &mockHandler{}, nil)
	err := in.Start(ctx)
	testutil.AssertEqual(t, "canceled", errors.Is(err, context.Canceled), true)
}
