package command

import (
	"fmt"
	"log/slog"
	"strings"
)

func parseLogLevel(s string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(strings.ToUpper(s)))
	if err != nil {
		return 0, fmt.Errorf("parsing log_level: %w", err)
	}
	return l, nil
}

func (c *Config) applyLogLevel() {
	if c.LogLevel == "" {
		return
	}
	l, err := parseLogLevel(c.LogLevel)
	if err != nil {
		return
	}
	slog.SetLogLoggerLevel(l)
}
