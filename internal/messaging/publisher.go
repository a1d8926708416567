package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/katacr/go-oneblock/internal/display"
	"github.com/katacr/go-oneblock/internal/stage"
)

// Publisher sends raw bytes to a subject.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// PlayerPublisher delivers chat messages to individual player channels.
type PlayerPublisher struct {
	pub Publisher
}

func NewPlayerPublisher(pub Publisher) *PlayerPublisher {
	return &PlayerPublisher{pub: pub}
}

// PlayerSubject is the channel a player's messages are published on.
func PlayerSubject(playerID string) string {
	return fmt.Sprintf("player-%s", playerID)
}

// Notify translates color codes in msg and publishes it to the player.
func (p *PlayerPublisher) Notify(ctx context.Context, playerID string, msg string) {
	err := p.pub.Publish(PlayerSubject(playerID), []byte(display.TranslateColors(msg)))
	if err != nil {
		slog.WarnContext(ctx, "publishing player message", "player", playerID, "error", err)
	}
}

type announcement struct {
	Stage     string
	Threshold int
	Next      string
}

// Announce sends the stage's entry message to the player.
func (p *PlayerPublisher) Announce(ctx context.Context, playerID string, def *stage.Definition) {
	msg, err := display.Expand(def.Announcement, announcement{
		Stage:     def.ID,
		Threshold: def.BreakThreshold,
		Next:      def.NextStageID,
	})
	if err != nil {
		slog.WarnContext(ctx, "expanding stage announcement", "stage", def.ID, "error", err)
		return
	}
	p.Notify(ctx, playerID, msg)
}
