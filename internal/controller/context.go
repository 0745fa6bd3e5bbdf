package controller

import "context"

type contextKey int

const connIdCtxKey contextKey = iota

func (c controller) getConnIdFromCtx(ctx context.Context) string {
	connId, _ := ctx.Value(connIdCtxKey).(string)
	return connId
}
