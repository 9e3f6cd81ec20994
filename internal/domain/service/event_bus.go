package service

import (
	"context"

	"zorkdi/internal/domain/entity"
)

// EventHandler returning an error leaves the event eligible for redelivery
// on transports that support it.
type EventHandler func(ctx context.Context, event entity.Event) error

type EventBus interface {
	Publish(ctx context.Context, event entity.Event) error
	Subscribe(eventType entity.EventType, handler EventHandler)
	Start(ctx context.Context) error
	Close() error
}
