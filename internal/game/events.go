package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/katacr/go-oneblock/internal/world"
	"github.com/pixil98/go-errors"
)

// BreakEvent is sent by the host when a player breaks a block.
type BreakEvent struct {
	PlayerID   string         `json:"player_id"`
	PlayerName string         `json:"player_name"`
	Pos        world.Position `json:"pos"`
}

func (e BreakEvent) Validate() error {
	el := errors.NewErrorList()
	el.Add(validatePlayer(e.PlayerID))
	el.Add(validateWorld(e.Pos.World))
	return el.Err()
}

// JoinEvent is sent when a player connects.
type JoinEvent struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

func (e JoinEvent) Validate() error {
	return validatePlayer(e.PlayerID)
}

// StartEvent asks for a block at the player's position.
type StartEvent struct {
	PlayerID   string         `json:"player_id"`
	PlayerName string         `json:"player_name"`
	Pos        world.Position `json:"pos"`
}

func (e StartEvent) Validate() error {
	el := errors.NewErrorList()
	el.Add(validatePlayer(e.PlayerID))
	el.Add(validateWorld(e.Pos.World))
	return el.Err()
}

// StopEvent asks for the player's block in a world to be removed.
type StopEvent struct {
	PlayerID string `json:"player_id"`
	World    string `json:"world"`
}

func (e StopEvent) Validate() error {
	el := errors.NewErrorList()
	el.Add(validatePlayer(e.PlayerID))
	el.Add(validateWorld(e.World))
	return el.Err()
}

func validatePlayer(id string) error {
	if id == "" {
		return fmt.Errorf("player id must be set")
	}
	_, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("player id %q: %w", id, err)
	}
	return nil
}

func validateWorld(name string) error {
	if name == "" {
		return fmt.Errorf("world must be set")
	}
	return nil
}
