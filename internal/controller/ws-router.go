package controller

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/auxroom/server/pkg/ctxlogger"
	"github.com/auxroom/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.loggerWSMw())

	mux.OnError(func(ctx context.Context, err error) {
		c.logger.WarnContext(ctx, "websocket message dropped", "error", err)
	})

	mux.Handle("ALIVE", c.handleAlive)
	mux.Handle("SYNC_REQUEST", c.handleSyncRequest)
	mux.Handle("CONTROL", c.handleControl)

	return mux
}

func (c controller) loggerWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc) wsrouter.HandlerFunc {
		return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))
			c.logger.DebugContext(ctx, "websocket message received")
			return next(ctx, conn, payload)
		}
	}
}
