package events

import (
	"context"

	"github.com/riskibarqy/nfl-pickem/internal/usecase"
)

// NopPublisher drops every event. Used when NATS_URL is not configured.
type NopPublisher struct{}

var _ usecase.EventPublisher = NopPublisher{}

func (NopPublisher) PublishGameCompleted(context.Context, usecase.GameCompletedEvent) error {
	return nil
}

func (NopPublisher) PublishPickSubmitted(context.Context, usecase.PickSubmittedEvent) error {
	return nil
}

func (NopPublisher) Close() {}
