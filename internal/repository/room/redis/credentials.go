package redis

import (
	"context"
	"fmt"

	"github.com/auxroom/server/internal/repository/room"
)

func (r repo) getCredentialsKey(identity string) string {
	return "credentials:" + identity
}

func (r repo) SetCredentials(ctx context.Context, params *room.SetCredentialsParams) error {
	pipe := r.rc.TxPipeline()

	credentialsKey := r.getCredentialsKey(params.Identity)
	pipe.HSet(ctx, credentialsKey, params.Credentials)
	pipe.Expire(ctx, credentialsKey, r.roomExpiration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set credentials: %w", err)
	}

	return nil
}

func (r repo) GetCredentials(ctx context.Context, identity string) (room.Credentials, error) {
	credentialsKey := r.getCredentialsKey(identity)
	res, err := r.rc.Exists(ctx, credentialsKey).Result()
	if err != nil {
		return room.Credentials{}, fmt.Errorf("failed to get credentials: %w", err)
	}

	if res == 0 {
		return room.Credentials{}, room.ErrCredentialsNotFound
	}

	var credentials room.Credentials
	if err := r.rc.HGetAll(ctx, credentialsKey).Scan(&credentials); err != nil {
		return room.Credentials{}, fmt.Errorf("failed to get credentials: %w", err)
	}

	r.rc.Expire(ctx, credentialsKey, r.roomExpiration)

	return credentials, nil
}
