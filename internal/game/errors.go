package game

import (
	"errors"

	"github.com/katacr/go-oneblock/internal/world"
)

var (
	ErrWorldNotAllowed = errors.New("world not allowed")
	ErrAlreadyStarted  = errors.New("player already has a block in this world")
	ErrNoBlock         = errors.New("player has no block in this world")
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrPositionOwned   = world.ErrPositionOwned
)
