package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	TickInterval string           `json:"tick_interval"`
	LogLevel     string           `json:"log_level"`
	Listeners    []ListenerConfig `json:"listeners"`
	MaxSessions  int              `json:"max_console_sessions"`
	Content      ContentConfig    `json:"content"`
	Storage      StorageConfig    `json:"storage"`
	Nats         NatsConfig       `json:"nats"`
	World        WorldConfig      `json:"world"`
	Generator    GeneratorConfig  `json:"generator"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d <= 0 {
			el.Add(fmt.Errorf("tick_interval must be positive"))
		}
	}

	if c.LogLevel != "" {
		_, err := parseLogLevel(c.LogLevel)
		el.Add(err)
	}

	if c.MaxSessions < 0 {
		el.Add(fmt.Errorf("max_console_sessions must not be negative"))
	}

	for i, l := range c.Listeners {
		err := l.validate()
		if err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.Content.validate())
	el.Add(c.Storage.validate())
	el.Add(c.Nats.validate())
	el.Add(c.World.validate())
	el.Add(c.Generator.validate())

	return el.Err()
}

func (c *Config) tickLength() time.Duration {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return 0
	}
	return d
}
