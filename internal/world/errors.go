package world

import "errors"

var (
	ErrNoContainer        = errors.New("no container at position")
	ErrSlotOutOfRange     = errors.New("slot out of range")
	ErrUnknownCustomBlock = errors.New("unknown custom block")
	ErrUnknownMaterial    = errors.New("unknown material")
	ErrPositionOwned      = errors.New("position belongs to another player")
)
