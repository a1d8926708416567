package world

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Remote is a World served by another process through a Requester.
type Remote struct {
	req Requester
}

func NewRemote(req Requester) *Remote {
	return &Remote{req: req}
}

func (r *Remote) call(ctx context.Context, subject string, in request) (reply, error) {
	var out reply

	data, err := json.Marshal(in)
	if err != nil {
		return out, fmt.Errorf("encoding %s request: %w", subject, err)
	}

	resp, err := r.req.Request(ctx, subject, data)
	if err != nil {
		return out, fmt.Errorf("requesting %s: %w", subject, err)
	}

	err = json.Unmarshal(resp, &out)
	if err != nil {
		return out, fmt.Errorf("decoding %s reply: %w", subject, err)
	}

	if out.Error != "" {
		if sentinel, ok := codeErrors[out.Code]; ok {
			return out, fmt.Errorf("%w: %s", sentinel, out.Error)
		}
		return out, errors.New(out.Error)
	}
	return out, nil
}

func (r *Remote) SetBlock(ctx context.Context, pos Position, material string) error {
	_, err := r.call(ctx, SubjectSetBlock, request{Pos: pos, Material: material})
	return err
}

func (r *Remote) IsEmpty(ctx context.Context, pos Position) (bool, error) {
	out, err := r.call(ctx, SubjectIsEmpty, request{Pos: pos})
	if err != nil {
		return false, err
	}
	return out.Empty, nil
}

func (r *Remote) SpawnEntity(ctx context.Context, pos Position, spec EntitySpec) error {
	_, err := r.call(ctx, SubjectSpawnEntity, request{Pos: pos, Entity: &spec})
	return err
}

func (r *Remote) OpenContainer(ctx context.Context, pos Position) (Container, error) {
	out, err := r.call(ctx, SubjectOpenContainer, request{Pos: pos})
	if err != nil {
		return nil, err
	}
	return &remoteContainer{remote: r, ctx: ctx, pos: pos, size: out.Size}, nil
}

func (r *Remote) PlaceCustom(ctx context.Context, pos Position, namespace, id string) error {
	_, err := r.call(ctx, SubjectPlaceCustom, request{Pos: pos, Namespace: namespace, ID: id})
	return err
}

func (r *Remote) ResolveItem(ctx context.Context, namespace, id string) (Item, bool) {
	out, err := r.call(ctx, SubjectResolveItem, request{Namespace: namespace, ID: id})
	if err != nil || !out.Found || out.Item == nil {
		return Item{}, false
	}
	return *out.Item, true
}

// remoteContainer keeps the context of the OpenContainer call; a container
// is only used within the callback that opened it.
type remoteContainer struct {
	remote *Remote
	ctx    context.Context
	pos    Position
	size   int
}

func (c *remoteContainer) Size() int {
	return c.size
}

func (c *remoteContainer) Item(slot int) (Item, bool) {
	out, err := c.remote.call(c.ctx, SubjectGetItem, request{Pos: c.pos, Slot: slot})
	if err != nil || !out.Found || out.Item == nil {
		return Item{}, false
	}
	return *out.Item, true
}

func (c *remoteContainer) SetItem(slot int, item Item) error {
	_, err := c.remote.call(c.ctx, SubjectSetItem, request{Pos: c.pos, Slot: slot, Item: &item})
	return err
}

func (c *remoteContainer) SetName(name string) error {
	_, err := c.remote.call(c.ctx, SubjectSetName, request{Pos: c.pos, Name: name})
	return err
}
