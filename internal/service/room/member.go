package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/repository/connection"
	"github.com/auxroom/server/internal/repository/room"
)

type RegisterParams struct {
	Conn     *websocket.Conn
	RoomId   string
	MemberId string
	Role     string
}

type RegisterResponse struct {
	ConnId string
}

// Register adds an authenticated connection to its room. The first
// connection for a room opens the room's pub/sub subscription and starts
// the fan-out loop; every later one reuses it.
func (s *service) Register(ctx context.Context, params *RegisterParams) (RegisterResponse, error) {
	if _, err := s.roomRepo.GetRoom(ctx, params.RoomId); err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return RegisterResponse{}, ErrRoomNotFound
		}
		return RegisterResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	conn := connection.New(uuid.NewString(), params.RoomId, params.MemberId, params.Role, params.Conn)

	s.subsMu.Lock()
	if err := s.connRepo.Add(conn); err != nil {
		s.subsMu.Unlock()
		return RegisterResponse{}, fmt.Errorf("failed to add connection: %w", err)
	}

	if _, ok := s.subs[params.RoomId]; !ok {
		sub, err := s.pubsub.Subscribe(ctx, params.RoomId)
		if err != nil {
			s.connRepo.Remove(conn.Id)
			s.subsMu.Unlock()
			return RegisterResponse{}, fmt.Errorf("failed to subscribe: %w", err)
		}

		s.subs[params.RoomId] = sub
		go s.dispatchLoop(params.RoomId, sub.Events())
	}
	s.subsMu.Unlock()

	if err := s.roomRepo.AddMember(ctx, &room.AddMemberParams{
		RoomId:   params.RoomId,
		MemberId: params.MemberId,
	}); err != nil {
		return RegisterResponse{}, fmt.Errorf("failed to add member: %w", err)
	}

	memberIds, err := s.roomRepo.GetMemberIds(ctx, params.RoomId)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("failed to get member ids: %w", err)
	}

	if err := s.publish(ctx, params.RoomId, domain.EventTypeMemberJoin, MemberJoinPayload{
		MemberId:    params.MemberId,
		MemberCount: len(memberIds),
	}); err != nil {
		return RegisterResponse{}, fmt.Errorf("failed to publish member join: %w", err)
	}

	if err := s.sendConnected(ctx, conn, memberIds); err != nil {
		return RegisterResponse{}, fmt.Errorf("failed to send connected: %w", err)
	}

	return RegisterResponse{ConnId: conn.Id}, nil
}

// Unregister removes a connection. Idempotent: a second call for the same
// connection id is a no-op, so the explicit-leave and dropped-socket paths
// can both call it.
func (s *service) Unregister(ctx context.Context, connId string) error {
	conn, err := s.connRepo.Remove(connId)
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to remove connection: %w", err)
	}
	conn.Close()

	if err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
		RoomId:   conn.RoomId,
		MemberId: conn.MemberId,
	}); err != nil && !errors.Is(err, room.ErrMemberNotFound) {
		s.logger.WarnContext(ctx, "failed to remove member", "member_id", conn.MemberId, "error", err)
	}

	memberIds, membersErr := s.roomRepo.GetMemberIds(ctx, conn.RoomId)
	if membersErr != nil {
		s.logger.WarnContext(ctx, "failed to get member ids", "room_id", conn.RoomId, "error", membersErr)
	} else {
		if err := s.publish(ctx, conn.RoomId, domain.EventTypeMemberLeave, MemberLeavePayload{
			MemberId:    conn.MemberId,
			MemberCount: len(memberIds),
		}); err != nil {
			s.logger.WarnContext(ctx, "failed to publish member leave", "room_id", conn.RoomId, "error", err)
		}
	}

	// no subscription may outlive the last connection for its room
	s.subsMu.Lock()
	if s.connRepo.CountByRoomId(conn.RoomId) == 0 {
		if sub, ok := s.subs[conn.RoomId]; ok {
			sub.Close()
			delete(s.subs, conn.RoomId)
		}
	}
	s.subsMu.Unlock()

	// only a confirmed empty membership deletes the room; a failed read
	// must not wipe state out from under the remaining members. Cleanup
	// happens on a later leave instead.
	if membersErr == nil && len(memberIds) == 0 {
		if err := s.roomRepo.RemoveRoom(ctx, conn.RoomId); err != nil {
			s.logger.WarnContext(ctx, "failed to remove empty room", "room_id", conn.RoomId, "error", err)
		}
	}

	return nil
}

// dispatchLoop relays one room's published events to its connections until
// the subscription closes. Single consumer per room, so delivery keeps
// publish order.
func (s *service) dispatchLoop(roomId string, events <-chan domain.Event) {
	for event := range events {
		s.dispatch(roomId, event)
	}
}

func (s *service) dispatch(roomId string, event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event", "room_id", roomId, "error", err)
		return
	}

	deadline := s.clock.Now().Add(s.sendTimeout)

	var failed []string
	for _, conn := range s.connRepo.GetByRoomId(roomId) {
		if err := conn.Send(data, deadline); err != nil {
			s.logger.Warn("failed to send event", "room_id", roomId, "conn_id", conn.Id, "error", err)
			failed = append(failed, conn.Id)
		}
	}

	// drop failing connections after the fan-out so one bad socket never
	// delays the others
	for _, connId := range failed {
		if err := s.Unregister(context.Background(), connId); err != nil {
			s.logger.Warn("failed to unregister connection", "conn_id", connId, "error", err)
		}
	}
}

func (s *service) sendConnected(ctx context.Context, conn *connection.Connection, memberIds []string) error {
	payload := ConnectedPayload{
		RoomId:    conn.RoomId,
		MemberId:  conn.MemberId,
		Role:      conn.Role,
		MemberIds: memberIds,
	}

	playback, err := s.roomRepo.GetPlayback(ctx, conn.RoomId)
	if err == nil {
		payload.Playback = playback.ToDomain()
	} else if !errors.Is(err, room.ErrPlaybackNotFound) {
		return fmt.Errorf("failed to get playback: %w", err)
	}

	return s.sendDirect(conn, domain.EventTypeConnected, payload)
}

// sendDirect delivers an event to one connection only, bypassing pub/sub.
func (s *service) sendDirect(conn *connection.Connection, eventType string, payload any) error {
	event, err := domain.NewEvent(eventType, payload, s.clock.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to build event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return conn.Send(data, s.clock.Now().Add(s.sendTimeout))
}

func (s *service) publish(ctx context.Context, roomId, eventType string, payload any) error {
	event, err := domain.NewEvent(eventType, payload, s.clock.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to build event: %w", err)
	}

	return s.pubsub.Publish(ctx, roomId, event)
}
