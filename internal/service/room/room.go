package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/repository/room"
)

const joinCodeLength = 6

type CreateRoomParams struct {
	HostId       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
	Visibility   string
}

type CreateRoomResponse struct {
	RoomId       string
	JoinCode     string
	ConnectToken string
}

// CreateRoom stores the room record and the host's credentials, and mints
// the host's connect token. The room starts inactive; polling begins when
// the host starts it.
func (s *service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	roomId := uuid.NewString()

	joinCode := ""
	if params.Visibility == domain.VisibilityPrivate {
		joinCode = s.generator.GenerateRandomString(joinCodeLength)
	}

	if err := s.roomRepo.SetRoom(ctx, &room.SetRoomParams{
		RoomId:     roomId,
		HostId:     params.HostId,
		IsActive:   false,
		Visibility: params.Visibility,
		JoinCode:   joinCode,
		CreatedAt:  s.clock.Now().Unix(),
	}); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	if err := s.roomRepo.SetCredentials(ctx, &room.SetCredentialsParams{
		Identity: params.HostId,
		Credentials: room.Credentials{
			AccessToken:  params.AccessToken,
			RefreshToken: params.RefreshToken,
			ExpiresAt:    params.ExpiresAt,
		},
	}); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to set credentials: %w", err)
	}

	connectToken, err := s.mintConnectToken(ctx, roomId, params.HostId, domain.RoleHost)
	if err != nil {
		return CreateRoomResponse{}, err
	}

	return CreateRoomResponse{
		RoomId:       roomId,
		JoinCode:     joinCode,
		ConnectToken: connectToken,
	}, nil
}

type JoinRoomParams struct {
	RoomId   string
	JoinCode string
}

type JoinRoomResponse struct {
	MemberId     string
	ConnectToken string
}

func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	rm, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return JoinRoomResponse{}, ErrRoomNotFound
		}
		return JoinRoomResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	if rm.Visibility == domain.VisibilityPrivate && rm.JoinCode != params.JoinCode {
		return JoinRoomResponse{}, ErrPermissionDenied
	}

	memberId := uuid.NewString()
	connectToken, err := s.mintConnectToken(ctx, params.RoomId, memberId, domain.RoleViewer)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	return JoinRoomResponse{
		MemberId:     memberId,
		ConnectToken: connectToken,
	}, nil
}

type ConnectParams struct {
	ConnectToken string
}

type ConnectResponse struct {
	RoomId   string
	MemberId string
	Role     string
}

// Connect exchanges a one-shot connect token for the identity minted at
// join time. Called by the transport layer during the websocket handshake.
func (s *service) Connect(ctx context.Context, params *ConnectParams) (ConnectResponse, error) {
	token, err := s.roomRepo.ConsumeConnectToken(ctx, params.ConnectToken)
	if err != nil {
		if errors.Is(err, room.ErrConnectTokenNotFound) {
			return ConnectResponse{}, ErrPermissionDenied
		}
		return ConnectResponse{}, fmt.Errorf("failed to consume connect token: %w", err)
	}

	return ConnectResponse{
		RoomId:   token.RoomId,
		MemberId: token.MemberId,
		Role:     token.Role,
	}, nil
}

type SetRoomActiveParams struct {
	RoomId   string
	HostId   string
	IsActive bool
}

// SetRoomActive toggles the room's activity flag on behalf of the host.
// The poller supervisor picks the change up on its next reconciliation
// pass; nothing here talks to the polling subsystem directly.
func (s *service) SetRoomActive(ctx context.Context, params *SetRoomActiveParams) error {
	rm, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to get room: %w", err)
	}

	if rm.HostId != params.HostId {
		return ErrPermissionDenied
	}

	if err := s.roomRepo.SetRoomActive(ctx, params.RoomId, params.IsActive); err != nil {
		return fmt.Errorf("failed to set room active: %w", err)
	}

	return nil
}

func (s *service) mintConnectToken(ctx context.Context, roomId, memberId, role string) (string, error) {
	token := uuid.NewString()
	if err := s.roomRepo.SetConnectToken(ctx, &room.SetConnectTokenParams{
		Token:    token,
		RoomId:   roomId,
		MemberId: memberId,
		Role:     role,
	}); err != nil {
		return "", fmt.Errorf("failed to set connect token: %w", err)
	}

	return token, nil
}
