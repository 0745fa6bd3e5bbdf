package redis

import (
	"context"
	"fmt"

	"github.com/auxroom/server/internal/repository/room"
)

func (r repo) getPlaybackKey(roomId string) string {
	return "room:" + roomId + ":playback"
}

func (r repo) SetPlayback(ctx context.Context, params *room.SetPlaybackParams) error {
	pipe := r.rc.TxPipeline()

	playbackKey := r.getPlaybackKey(params.RoomId)
	pipe.HSet(ctx, playbackKey, params.Playback)
	pipe.Expire(ctx, playbackKey, r.playbackExpiration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set playback: %w", err)
	}

	return nil
}

func (r repo) GetPlayback(ctx context.Context, roomId string) (room.Playback, error) {
	playbackKey := r.getPlaybackKey(roomId)
	res, err := r.rc.Exists(ctx, playbackKey).Result()
	if err != nil {
		return room.Playback{}, fmt.Errorf("failed to get playback: %w", err)
	}

	if res == 0 {
		return room.Playback{}, room.ErrPlaybackNotFound
	}

	var playback room.Playback
	if err := r.rc.HGetAll(ctx, playbackKey).Scan(&playback); err != nil {
		return room.Playback{}, fmt.Errorf("failed to get playback: %w", err)
	}

	return playback, nil
}

func (r repo) RemovePlayback(ctx context.Context, roomId string) error {
	if err := r.rc.Del(ctx, r.getPlaybackKey(roomId)).Err(); err != nil {
		return fmt.Errorf("failed to remove playback: %w", err)
	}

	return nil
}
