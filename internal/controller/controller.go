package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/auxroom/server/internal/service/poller"
	"github.com/auxroom/server/internal/service/room"
	"github.com/auxroom/server/pkg/validator"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	Connect(context.Context, *room.ConnectParams) (room.ConnectResponse, error)
	SetRoomActive(context.Context, *room.SetRoomActiveParams) error
	Register(context.Context, *room.RegisterParams) (room.RegisterResponse, error)
	Unregister(ctx context.Context, connId string) error
	SyncRequest(context.Context, *room.SyncRequestParams) error
	Control(context.Context, *room.ControlParams) error
}

type iPollerStatus interface {
	GetStatus() poller.Status
}

type controller struct {
	roomService  iRoomService
	pollerStatus iPollerStatus
	upgrader     websocket.Upgrader
	validate     *validator.Validator
	logger       *slog.Logger
}

func NewController(roomService iRoomService, pollerStatus iPollerStatus, logger *slog.Logger) *controller {
	return &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService:  roomService,
		pollerStatus: pollerStatus,
		validate:     validator.NewValidator(),
		logger:       logger,
	}
}
