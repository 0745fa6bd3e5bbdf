package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/repository/room"
)

type SyncRequestParams struct {
	ConnId string
}

// SyncRequest replies with the current persisted playback to the
// requesting connection only, never broadcast. Lets a reconnecting viewer
// catch up without waiting for the next host tick.
func (s *service) SyncRequest(ctx context.Context, params *SyncRequestParams) error {
	conn, err := s.connRepo.GetById(params.ConnId)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}

	var playback *domain.Playback
	stored, err := s.roomRepo.GetPlayback(ctx, conn.RoomId)
	switch {
	case err == nil:
		playback = stored.ToDomain()
	case errors.Is(err, room.ErrPlaybackNotFound):
		playback = &domain.Playback{ObservedAt: s.clock.Now().UnixMilli()}
	default:
		return fmt.Errorf("failed to get playback: %w", err)
	}

	if err := s.sendDirect(conn, domain.EventTypeNowPlaying, playback); err != nil {
		return fmt.Errorf("failed to send playback: %w", err)
	}

	return nil
}
