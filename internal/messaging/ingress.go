package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/katacr/go-oneblock/internal/driver"
	"github.com/katacr/go-oneblock/internal/game"
	"github.com/katacr/go-oneblock/internal/progress"
	"github.com/katacr/go-oneblock/internal/world"
	"github.com/pixil98/go-errors"
)

// Subjects the host publishes player events on.
const (
	SubjectBreak = "oneblock.break"
	SubjectJoin  = "oneblock.join"
	SubjectStart = "oneblock.start"
	SubjectStop  = "oneblock.stop"
)

type Bus interface {
	WaitReady(ctx context.Context) error
	Subscribe(subject string, handler func(data []byte)) (func(), error)
}

type Submitter interface {
	Submit(name string, fn driver.Task)
}

// EventHandler is the game side of the host events.
type EventHandler interface {
	HandleBreak(ctx context.Context, ev game.BreakEvent) error
	Join(ctx context.Context, ev game.JoinEvent) progress.Progress
	StartPlayer(ctx context.Context, ev game.StartEvent) (world.OwnedBlock, error)
	StopPlayer(ctx context.Context, ev game.StopEvent) error
}

type Notifier interface {
	Notify(ctx context.Context, playerID string, msg string)
}

// Ingress decodes host events and hands them to the tick.
type Ingress struct {
	bus      Bus
	sched    Submitter
	handler  EventHandler
	notifier Notifier

	unsubs []func()
}

func NewIngress(bus Bus, sched Submitter, handler EventHandler, notifier Notifier) *Ingress {
	return &Ingress{
		bus:      bus,
		sched:    sched,
		handler:  handler,
		notifier: notifier,
	}
}

// Start subscribes once the bus is ready and unsubscribes when ctx ends.
func (i *Ingress) Start(ctx context.Context) error {
	err := i.bus.WaitReady(ctx)
	if err != nil {
		return fmt.Errorf("waiting for message bus: %w", err)
	}

	err = i.Register()
	if err != nil {
		i.Close()
		return err
	}
	slog.InfoContext(ctx, "listening for host events")

	<-ctx.Done()
	i.Close()
	return nil
}

// Register subscribes to every host event subject.
func (i *Ingress) Register() error {
	handlers := map[string]func(data []byte){
		SubjectBreak: i.onBreak,
		SubjectJoin:  i.onJoin,
		SubjectStart: i.onStart,
		SubjectStop:  i.onStop,
	}

	el := errors.NewErrorList()
	for subject, fn := range handlers {
		unsub, err := i.bus.Subscribe(subject, fn)
		if err != nil {
			el.Add(fmt.Errorf("subscribing to %s: %w", subject, err))
			continue
		}
		i.unsubs = append(i.unsubs, unsub)
	}
	return el.Err()
}

func (i *Ingress) Close() {
	for _, unsub := range i.unsubs {
		unsub()
	}
	i.unsubs = nil
}

type validator interface {
	Validate() error
}

func decode(subject string, data []byte, ev validator) bool {
	err := json.Unmarshal(data, ev)
	if err == nil {
		err = ev.Validate()
	}
	if err != nil {
		slog.Warn("dropping malformed event", "subject", subject, "error", err)
		return false
	}
	return true
}

func (i *Ingress) onBreak(data []byte) {
	var ev game.BreakEvent
	if !decode(SubjectBreak, data, &ev) {
		return
	}
	i.sched.Submit(SubjectBreak, func(ctx context.Context) {
		err := i.handler.HandleBreak(ctx, ev)
		if err != nil {
			slog.WarnContext(ctx, "handling break", "player", ev.PlayerID, "pos", ev.Pos.String(), "error", err)
		}
	})
}

func (i *Ingress) onJoin(data []byte) {
	var ev game.JoinEvent
	if !decode(SubjectJoin, data, &ev) {
		return
	}
	i.sched.Submit(SubjectJoin, func(ctx context.Context) {
		p := i.handler.Join(ctx, ev)
		slog.DebugContext(ctx, "player joined", "player", ev.PlayerID, "stage", p.StageID, "broken", p.BlocksBroken)
	})
}

func (i *Ingress) onStart(data []byte) {
	var ev game.StartEvent
	if !decode(SubjectStart, data, &ev) {
		return
	}
	i.sched.Submit(SubjectStart, func(ctx context.Context) {
		_, err := i.handler.StartPlayer(ctx, ev)
		if err != nil {
			i.refuse(ctx, ev.PlayerID, err)
		}
	})
}

func (i *Ingress) onStop(data []byte) {
	var ev game.StopEvent
	if !decode(SubjectStop, data, &ev) {
		return
	}
	i.sched.Submit(SubjectStop, func(ctx context.Context) {
		err := i.handler.StopPlayer(ctx, ev)
		if err != nil {
			i.refuse(ctx, ev.PlayerID, err)
		}
	})
}

func (i *Ingress) refuse(ctx context.Context, playerID string, err error) {
	slog.InfoContext(ctx, "player request refused", "player", playerID, "error", err)
	if i.notifier != nil {
		i.notifier.Notify(ctx, playerID, "&c"+err.Error())
	}
}
