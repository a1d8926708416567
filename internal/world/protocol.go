package world

import (
	"context"
	"errors"
)

// Subjects the world is reachable on when it lives in another process.
const (
	SubjectSetBlock      = "world.block.set"
	SubjectIsEmpty       = "world.block.empty"
	SubjectSpawnEntity   = "world.entity.spawn"
	SubjectOpenContainer = "world.container.open"
	SubjectGetItem       = "world.container.get"
	SubjectSetItem       = "world.container.set"
	SubjectSetName       = "world.container.name"
	SubjectPlaceCustom   = "world.custom.place"
	SubjectResolveItem   = "world.item.resolve"
)

const (
	codeNoContainer   = "no_container"
	codeSlotRange     = "slot_out_of_range"
	codeUnknownCustom = "unknown_custom_block"
	codeUnknownMat    = "unknown_material"
	codeBadRequest    = "bad_request"
)

// Requester sends a request and waits for the reply.
type Requester interface {
	Request(ctx context.Context, subject string, data []byte) ([]byte, error)
}

// Responder registers a handler whose return value is sent as the reply.
type Responder interface {
	Handle(subject string, handler func(data []byte) []byte) (func(), error)
}

type request struct {
	Pos       Position    `json:"pos"`
	Material  string      `json:"material,omitempty"`
	Namespace string      `json:"namespace,omitempty"`
	ID        string      `json:"id,omitempty"`
	Slot      int         `json:"slot,omitempty"`
	Item      *Item       `json:"item,omitempty"`
	Name      string      `json:"name,omitempty"`
	Entity    *EntitySpec `json:"entity,omitempty"`
}

type reply struct {
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
	Empty bool   `json:"empty,omitempty"`
	Size  int    `json:"size,omitempty"`
	Found bool   `json:"found,omitempty"`
	Item  *Item  `json:"item,omitempty"`
}

var codeErrors = map[string]error{
	codeNoContainer:   ErrNoContainer,
	codeSlotRange:     ErrSlotOutOfRange,
	codeUnknownCustom: ErrUnknownCustomBlock,
	codeUnknownMat:    ErrUnknownMaterial,
}

func errorCode(err error) string {
	for code, target := range codeErrors {
		if errors.Is(err, target) {
			return code
		}
	}
	return ""
}
