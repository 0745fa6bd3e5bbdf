package redis

import (
	"context"
	"fmt"

	"github.com/auxroom/server/internal/repository/room"
)

func (r repo) getMembersKey(roomId string) string {
	return "room:" + roomId + ":members"
}

func (r repo) AddMember(ctx context.Context, params *room.AddMemberParams) error {
	pipe := r.rc.TxPipeline()

	membersKey := r.getMembersKey(params.RoomId)
	pipe.SAdd(ctx, membersKey, params.MemberId)
	pipe.Expire(ctx, membersKey, r.roomExpiration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

func (r repo) RemoveMember(ctx context.Context, params *room.RemoveMemberParams) error {
	res, err := r.rc.SRem(ctx, r.getMembersKey(params.RoomId), params.MemberId).Result()
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	if res == 0 {
		return room.ErrMemberNotFound
	}

	return nil
}

func (r repo) GetMemberIds(ctx context.Context, roomId string) ([]string, error) {
	memberIds, err := r.rc.SMembers(ctx, r.getMembersKey(roomId)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}

	return memberIds, nil
}
