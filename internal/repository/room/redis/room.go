package redis

import (
	"context"
	"fmt"

	"github.com/auxroom/server/internal/repository/room"
)

const activeRoomsKey = "rooms:active"

func (r repo) getRoomKey(roomId string) string {
	return "room:" + roomId
}

func (r repo) SetRoom(ctx context.Context, params *room.SetRoomParams) error {
	pipe := r.rc.TxPipeline()

	roomKey := r.getRoomKey(params.RoomId)
	pipe.HSet(ctx, roomKey, room.Room{
		HostId:     params.HostId,
		IsActive:   params.IsActive,
		Visibility: params.Visibility,
		JoinCode:   params.JoinCode,
		CreatedAt:  params.CreatedAt,
	})
	pipe.Expire(ctx, roomKey, r.roomExpiration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomId string) (room.Room, error) {
	roomKey := r.getRoomKey(roomId)
	res, err := r.rc.Exists(ctx, roomKey).Result()
	if err != nil {
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	if res == 0 {
		return room.Room{}, room.ErrRoomNotFound
	}

	var rm room.Room
	if err := r.rc.HGetAll(ctx, roomKey).Scan(&rm); err != nil {
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	r.rc.Expire(ctx, roomKey, r.roomExpiration)

	return rm, nil
}

func (r repo) RemoveRoom(ctx context.Context, roomId string) error {
	pipe := r.rc.TxPipeline()
	pipe.Del(ctx, r.getRoomKey(roomId))
	pipe.Del(ctx, r.getMembersKey(roomId))
	pipe.Del(ctx, r.getPlaybackKey(roomId))
	pipe.SRem(ctx, activeRoomsKey, roomId)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to remove room: %w", err)
	}

	return nil
}

func (r repo) SetRoomActive(ctx context.Context, roomId string, isActive bool) error {
	roomKey := r.getRoomKey(roomId)
	res, err := r.rc.Exists(ctx, roomKey).Result()
	if err != nil {
		return fmt.Errorf("failed to set room active: %w", err)
	}

	if res == 0 {
		return room.ErrRoomNotFound
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, roomKey, "is_active", isActive)
	pipe.Expire(ctx, roomKey, r.roomExpiration)
	if isActive {
		pipe.SAdd(ctx, activeRoomsKey, roomId)
	} else {
		pipe.SRem(ctx, activeRoomsKey, roomId)
	}

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set room active: %w", err)
	}

	return nil
}

func (r repo) GetActiveRoomIds(ctx context.Context) ([]string, error) {
	roomIds, err := r.rc.SMembers(ctx, activeRoomsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get active room ids: %w", err)
	}

	return roomIds, nil
}
