package redis

import (
	"context"
	"fmt"

	"github.com/auxroom/server/internal/repository/room"
)

func (r repo) getConnectTokenKey(token string) string {
	return "connect-token:" + token
}

func (r repo) SetConnectToken(ctx context.Context, params *room.SetConnectTokenParams) error {
	pipe := r.rc.TxPipeline()

	tokenKey := r.getConnectTokenKey(params.Token)
	pipe.HSet(ctx, tokenKey, room.ConnectToken{
		RoomId:   params.RoomId,
		MemberId: params.MemberId,
		Role:     params.Role,
	})
	pipe.Expire(ctx, tokenKey, r.tokenExpiration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set connect token: %w", err)
	}

	return nil
}

// ConsumeConnectToken returns the record for the token and deletes it, so a
// token admits exactly one handshake.
func (r repo) ConsumeConnectToken(ctx context.Context, token string) (room.ConnectToken, error) {
	tokenKey := r.getConnectTokenKey(token)
	res, err := r.rc.Exists(ctx, tokenKey).Result()
	if err != nil {
		return room.ConnectToken{}, fmt.Errorf("failed to consume connect token: %w", err)
	}

	if res == 0 {
		return room.ConnectToken{}, room.ErrConnectTokenNotFound
	}

	var connectToken room.ConnectToken
	if err := r.rc.HGetAll(ctx, tokenKey).Scan(&connectToken); err != nil {
		return room.ConnectToken{}, fmt.Errorf("failed to consume connect token: %w", err)
	}

	if err := r.rc.Del(ctx, tokenKey).Err(); err != nil {
		return room.ConnectToken{}, fmt.Errorf("failed to consume connect token: %w", err)
	}

	return connectToken, nil
}
