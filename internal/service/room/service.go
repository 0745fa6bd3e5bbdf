package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/auxroom/server/internal/pubsub"
	"github.com/auxroom/server/internal/repository/connection"
	"github.com/auxroom/server/internal/repository/room"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrRoomNotFound     = errors.New("room not found")
)

type iRoomRepo interface {
	// room
	SetRoom(context.Context, *room.SetRoomParams) error
	GetRoom(ctx context.Context, roomId string) (room.Room, error)
	RemoveRoom(ctx context.Context, roomId string) error
	SetRoomActive(ctx context.Context, roomId string, isActive bool) error
	// playback
	GetPlayback(ctx context.Context, roomId string) (room.Playback, error)
	// credentials
	SetCredentials(context.Context, *room.SetCredentialsParams) error
	// member
	AddMember(context.Context, *room.AddMemberParams) error
	RemoveMember(context.Context, *room.RemoveMemberParams) error
	GetMemberIds(ctx context.Context, roomId string) ([]string, error)
	// connect token
	SetConnectToken(context.Context, *room.SetConnectTokenParams) error
	ConsumeConnectToken(ctx context.Context, token string) (room.ConnectToken, error)
}

type iConnRepo interface {
	Add(*connection.Connection) error
	Remove(connId string) (*connection.Connection, error)
	GetById(connId string) (*connection.Connection, error)
	GetByRoomId(roomId string) []*connection.Connection
	CountByRoomId(roomId string) int
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type service struct {
	roomRepo    iRoomRepo
	connRepo    iConnRepo
	pubsub      pubsub.PubSub
	generator   iGenerator
	clock       clockwork.Clock
	sendTimeout time.Duration
	logger      *slog.Logger

	// one pub/sub subscription per room with at least one connection
	subsMu sync.Mutex
	subs   map[string]pubsub.Subscription
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, ps pubsub.PubSub, generator iGenerator, clock clockwork.Clock, sendTimeout time.Duration, logger *slog.Logger) *service {
	return &service{
		roomRepo:    roomRepo,
		connRepo:    connRepo,
		pubsub:      ps,
		generator:   generator,
		clock:       clock,
		sendTimeout: sendTimeout,
		logger:      logger,
		subs:        make(map[string]pubsub.Subscription),
	}
}
