package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/katacr/go-oneblock/internal/messaging"
	"github.com/katacr/go-oneblock/internal/world"
	"github.com/pixil98/go-errors"
)

type WorldMode int

const (
	// WorldModeMemory keeps the world in process.
	WorldModeMemory WorldMode = iota
	// WorldModeRemote drives a world served by the host over nats.
	WorldModeRemote
)

func (m *WorldMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "memory", "":
		*m = WorldModeMemory
	case "remote":
		*m = WorldModeRemote
	default:
		return fmt.Errorf("unknown world mode: %s", text)
	}
	return nil
}

type WorldConfig struct {
	Mode          WorldMode `json:"mode"`
	Serve         bool      `json:"serve"`
	ContainerSize int       `json:"container_size"`
	CustomBlocks  []string  `json:"custom_blocks"`
}

func (c *WorldConfig) validate() error {
	el := errors.NewErrorList()

	if c.ContainerSize < 0 {
		el.Add(fmt.Errorf("world.container_size must not be negative"))
	}
	if c.Mode == WorldModeRemote && c.Serve {
		el.Add(fmt.Errorf("world.serve only applies to the memory world"))
	}
	// Host events arrive over nats, so the host must be able to clear broken
	// blocks in a memory world.
	if c.Mode == WorldModeMemory && !c.Serve {
		el.Add(fmt.Errorf("world.serve must be set for the memory world"))
	}

	return el.Err()
}

// worldAdapter is everything the generator needs from a world.
type worldAdapter interface {
	world.World
	world.CustomBlockPlacer
	world.ItemResolver
}

func (c *WorldConfig) buildWorld(ns *messaging.NatsServer) worldAdapter {
	if c.Mode == WorldModeRemote {
		return world.NewRemote(ns)
	}

	var opts []world.MemoryOpt
	if c.ContainerSize > 0 {
		opts = append(opts, world.WithContainerSize(c.ContainerSize))
	}
	if len(c.CustomBlocks) > 0 {
		opts = append(opts, world.WithCustomBlocks(c.CustomBlocks...))
	}
	return world.NewMemory(opts...)
}

// hostWorker serves a local world to remote clients once nats is up.
type hostWorker struct {
	host *world.Host
	ns   *messaging.NatsServer
}

func (w *hostWorker) Start(ctx context.Context) error {
	err := w.ns.WaitReady(ctx)
	if err != nil {
		return fmt.Errorf("waiting for nats: %w", err)
	}

	err = w.host.Register(w.ns)
	if err != nil {
		w.host.Close()
		return fmt.Errorf("serving world: %w", err)
	}
	slog.InfoContext(ctx, "serving world over nats", "url", w.ns.ClientURL())

	<-ctx.Done()
	w.host.Close()
	return nil
}
