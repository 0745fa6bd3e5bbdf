package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc             *redis.Client
	roomExpiration time.Duration
	// playback is meaningless once stale, so it gets its own short ttl
	playbackExpiration time.Duration
	tokenExpiration    time.Duration
	logger             *slog.Logger
}

func NewRepo(rc *redis.Client, roomExpiration, playbackExpiration, tokenExpiration time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:                 rc,
		roomExpiration:     roomExpiration,
		playbackExpiration: playbackExpiration,
		tokenExpiration:    tokenExpiration,
		logger:             logger,
	}
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}
