package command

import (
	"fmt"

	"github.com/katacr/go-oneblock/internal/game"
	"github.com/katacr/go-oneblock/internal/stage"
	"github.com/katacr/go-oneblock/internal/weighted"
	"github.com/pixil98/go-errors"
)

type GeneratorConfig struct {
	InitialStage       string   `json:"initial_stage"`
	DefaultBlock       string   `json:"default_block"`
	ChestChance        *float64 `json:"chest_chance"`
	Debug              bool     `json:"debug"`
	AllowedWorlds      []string `json:"allowed_worlds"`
	TransformedMessage string   `json:"transformed_message"`
	Seed               uint64   `json:"seed"`
}

func (c *GeneratorConfig) validate() error {
	el := errors.NewErrorList()

	if c.DefaultBlock != "" {
		_, err := stage.ParseBlockRef(c.DefaultBlock)
		if err != nil {
			el.Add(fmt.Errorf("default_block: %w", err))
		}
	}
	if c.ChestChance != nil && (*c.ChestChance < 0 || *c.ChestChance > 1) {
		el.Add(fmt.Errorf("chest_chance must be between 0 and 1"))
	}

	return el.Err()
}

func (c *GeneratorConfig) serviceOpts() []game.ServiceOpt {
	opts := []game.ServiceOpt{
		game.WithDebug(c.Debug),
		game.WithAllowedWorlds(c.AllowedWorlds...),
		game.WithTransformedMessage(c.TransformedMessage),
	}
	if c.ChestChance != nil {
		opts = append(opts, game.WithChestChance(*c.ChestChance))
	}
	if c.Seed != 0 {
		opts = append(opts, game.WithRand(weighted.NewRand(c.Seed)))
	}
	return opts
}
