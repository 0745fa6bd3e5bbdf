package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/auxroom/server/internal/service/room"
	"github.com/auxroom/server/pkg/ctxlogger"
	"github.com/auxroom/server/pkg/rest"
)

// serveWS upgrades an authenticated client. The connect token minted by
// the REST layer is exchanged for room id, member id and role; the core
// never sees an unauthenticated connection.
func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": "missing token"})
		return
	}

	connectResp, err := c.roomService.Connect(r.Context(), &room.ConnectParams{ConnectToken: token})
	if err != nil {
		if errors.Is(err, room.ErrPermissionDenied) {
			rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": "invalid token"})
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to connect", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade connection", "error", err)
		return
	}

	ctx := ctxlogger.AppendCtx(context.Background(), slog.String("room_id", connectResp.RoomId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("member_id", connectResp.MemberId))

	registerResp, err := c.roomService.Register(ctx, &room.RegisterParams{
		Conn:     conn,
		RoomId:   connectResp.RoomId,
		MemberId: connectResp.MemberId,
		Role:     connectResp.Role,
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to register connection", "error", err)
		conn.Close()
		return
	}

	ctx = context.WithValue(ctx, connIdCtxKey, registerResp.ConnId)

	if err := c.getWSRouter().ServeConn(ctx, conn); err != nil {
		if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.logger.InfoContext(ctx, "connection closed", "error", err)
		}
	}

	if err := c.roomService.Unregister(ctx, registerResp.ConnId); err != nil {
		c.logger.ErrorContext(ctx, "failed to unregister connection", "error", err)
	}
}

func (c controller) handleSyncRequest(ctx context.Context, _ *websocket.Conn, _ json.RawMessage) error {
	return c.roomService.SyncRequest(ctx, &room.SyncRequestParams{
		ConnId: c.getConnIdFromCtx(ctx),
	})
}

func (c controller) handleControl(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	err := c.roomService.Control(ctx, &room.ControlParams{
		ConnId:  c.getConnIdFromCtx(ctx),
		Payload: payload,
	})
	if errors.Is(err, room.ErrPermissionDenied) {
		// already logged by the service; the connection stays open
		return nil
	}

	return err
}

func (c controller) handleAlive(_ context.Context, _ *websocket.Conn, _ json.RawMessage) error {
	return nil
}
