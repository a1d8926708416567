package world

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixil98/go-errors"
)

const hostRequestTimeout = 5 * time.Second

// Host answers Remote requests using a local world.
type Host struct {
	world  World
	custom CustomBlockPlacer
	items  ItemResolver

	unsubs []func()
}

// NewHost serves w. If w also places custom blocks or resolves items those
// requests are served too.
func NewHost(w World) *Host {
	h := &Host{world: w}
	h.custom, _ = w.(CustomBlockPlacer)
	h.items, _ = w.(ItemResolver)
	return h
}

// Register subscribes every world subject on r.
func (h *Host) Register(r Responder) error {
	handlers := map[string]func(context.Context, request) (reply, error){
		SubjectSetBlock:      h.setBlock,
		SubjectIsEmpty:       h.isEmpty,
		SubjectSpawnEntity:   h.spawnEntity,
		SubjectOpenContainer: h.openContainer,
		SubjectGetItem:       h.getItem,
		SubjectSetItem:       h.setItem,
		SubjectSetName:       h.setName,
		SubjectPlaceCustom:   h.placeCustom,
		SubjectResolveItem:   h.resolveItem,
	}

	el := errors.NewErrorList()
	for subject, fn := range handlers {
		unsub, err := r.Handle(subject, h.wrap(subject, fn))
		if err != nil {
			el.Add(fmt.Errorf("handling %s: %w", subject, err))
			continue
		}
		h.unsubs = append(h.unsubs, unsub)
	}
	return el.Err()
}

// Close removes every subscription made by Register.
func (h *Host) Close() {
	for _, unsub := range h.unsubs {
		unsub()
	}
	h.unsubs = nil
}

func (h *Host) wrap(subject string, fn func(context.Context, request) (reply, error)) func([]byte) []byte {
	return func(data []byte) []byte {
		ctx, cancel := context.WithTimeout(context.Background(), hostRequestTimeout)
		defer cancel()

		var in request
		var out reply
		err := json.Unmarshal(data, &in)
		if err != nil {
			out = reply{Error: err.Error(), Code: codeBadRequest}
		} else {
			out, err = fn(ctx, in)
			if err != nil {
				slog.DebugContext(ctx, "world request failed", "subject", subject, "error", err)
				out = reply{Error: err.Error(), Code: errorCode(err)}
			}
		}

		resp, err := json.Marshal(out)
		if err != nil {
			slog.ErrorContext(ctx, "encoding world reply", "subject", subject, "error", err)
			return []byte(`{"error":"internal error"}`)
		}
		return resp
	}
}

func (h *Host) setBlock(ctx context.Context, in request) (reply, error) {
	return reply{}, h.world.SetBlock(ctx, in.Pos, in.Material)
}

func (h *Host) isEmpty(ctx context.Context, in request) (reply, error) {
	empty, err := h.world.IsEmpty(ctx, in.Pos)
	return reply{Empty: empty}, err
}

func (h *Host) spawnEntity(ctx context.Context, in request) (reply, error) {
	if in.Entity == nil {
		return reply{}, fmt.Errorf("missing entity")
	}
	return reply{}, h.world.SpawnEntity(ctx, in.Pos, *in.Entity)
}

func (h *Host) openContainer(ctx context.Context, in request) (reply, error) {
	c, err := h.world.OpenContainer(ctx, in.Pos)
	if err != nil {
		return reply{}, err
	}
	return reply{Size: c.Size()}, nil
}

func (h *Host) getItem(ctx context.Context, in request) (reply, error) {
	c, err := h.world.OpenContainer(ctx, in.Pos)
	if err != nil {
		return reply{}, err
	}
	it, ok := c.Item(in.Slot)
	if !ok {
		return reply{}, nil
	}
	return reply{Found: true, Item: &it}, nil
}

func (h *Host) setItem(ctx context.Context, in request) (reply, error) {
	if in.Item == nil {
		return reply{}, fmt.Errorf("missing item")
	}
	c, err := h.world.OpenContainer(ctx, in.Pos)
	if err != nil {
		return reply{}, err
	}
	return reply{}, c.SetItem(in.Slot, *in.Item)
}

func (h *Host) setName(ctx context.Context, in request) (reply, error) {
	c, err := h.world.OpenContainer(ctx, in.Pos)
	if err != nil {
		return reply{}, err
	}
	return reply{}, c.SetName(in.Name)
}

func (h *Host) placeCustom(ctx context.Context, in request) (reply, error) {
	if h.custom == nil {
		return reply{}, fmt.Errorf("%w: %s:%s", ErrUnknownCustomBlock, in.Namespace, in.ID)
	}
	return reply{}, h.custom.PlaceCustom(ctx, in.Pos, in.Namespace, in.ID)
}

func (h *Host) resolveItem(ctx context.Context, in request) (reply, error) {
	if h.items == nil {
		return reply{}, nil
	}
	it, ok := h.items.ResolveItem(ctx, in.Namespace, in.ID)
	if !ok {
		return reply{}, nil
	}
	return reply{Found: true, Item: &it}, nil
}
