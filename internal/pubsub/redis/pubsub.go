package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/pubsub"
)

type pubSub struct {
	rc     *redis.Client
	logger *slog.Logger
}

func NewPubSub(rc *redis.Client, logger *slog.Logger) *pubSub {
	return &pubSub{
		rc:     rc,
		logger: logger,
	}
}

func (p *pubSub) getChannelKey(roomId string) string {
	return "room:" + roomId + ":events"
}

func (p *pubSub) Publish(ctx context.Context, roomId string, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rc.Publish(ctx, p.getChannelKey(roomId), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func (p *pubSub) Subscribe(ctx context.Context, roomId string) (pubsub.Subscription, error) {
	ps := p.rc.Subscribe(ctx, p.getChannelKey(roomId))
	// force the subscription onto the wire before returning, so no event
	// published after Subscribe is missed
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	sub := &subscription{
		ps:     ps,
		events: make(chan domain.Event),
	}

	go func() {
		defer close(sub.events)
		for msg := range ps.Channel() {
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				p.logger.Warn("dropping undecodable event", "room_id", roomId, "error", err)
				continue
			}

			sub.events <- event
		}
	}()

	return sub, nil
}

type subscription struct {
	ps     *redis.PubSub
	events chan domain.Event
}

func (s *subscription) Events() <-chan domain.Event {
	return s.events
}

func (s *subscription) Close() error {
	return s.ps.Close()
}
