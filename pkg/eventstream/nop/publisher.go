// Package nop provides the publisher used when no event stream is configured.
package nop

import (
	"context"
	"log/slog"

	"github.com/zhyuuka/xingling-chat/pkg/eventstream"
	"github.com/zhyuuka/xingling-chat/pkg/logger"
)

// Publisher validates events and drops them.
type Publisher struct {
	logger *slog.Logger
}

// NewPublisher creates a no-op publisher. A nil logger discards.
func NewPublisher(l *slog.Logger) *Publisher {
	if l == nil {
		l = logger.Nop()
	}
	return &Publisher{logger: l}
}

func (p *Publisher) PublishTurn(_ context.Context, event *eventstream.TurnCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	p.logger.Debug("dropping turn event",
		"event_id", event.EventID,
		"session_id", event.Turn.SessionID,
	)
	return nil
}

func (p *Publisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
