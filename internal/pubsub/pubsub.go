// Package pubsub is the decoupling boundary between the room pollers and
// the connection broadcaster. Events published for a room are delivered, in
// publish order, to every live subscription for that room.
package pubsub

import (
	"context"

	"github.com/auxroom/server/internal/domain"
)

type Subscription interface {
	// Events is closed when the subscription is closed.
	Events() <-chan domain.Event
	Close() error
}

type Publisher interface {
	Publish(ctx context.Context, roomId string, event domain.Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, roomId string) (Subscription, error)
}

type PubSub interface {
	Publisher
	Subscriber
}
