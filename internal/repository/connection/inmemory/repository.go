package inmemory

import (
	"log/slog"
	"sync"

	"github.com/auxroom/server/internal/repository/connection"
)

// roomConns holds one room's connection set behind its own lock, so a busy
// room never blocks another room's registration or fan-out.
type roomConns struct {
	mu    sync.RWMutex
	conns map[string]*connection.Connection
}

type repo struct {
	mu     sync.RWMutex
	rooms  map[string]*roomConns
	byId   map[string]*connection.Connection
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		rooms:  make(map[string]*roomConns),
		byId:   make(map[string]*connection.Connection),
		logger: logger,
	}
}

func (r *repo) Add(conn *connection.Connection) error {
	r.mu.Lock()
	if _, ok := r.byId[conn.Id]; ok {
		r.mu.Unlock()
		return connection.ErrAlreadyExists
	}

	r.byId[conn.Id] = conn
	rc, ok := r.rooms[conn.RoomId]
	if !ok {
		rc = &roomConns{conns: make(map[string]*connection.Connection)}
		r.rooms[conn.RoomId] = rc
	}
	r.mu.Unlock()

	rc.mu.Lock()
	rc.conns[conn.Id] = conn
	rc.mu.Unlock()

	r.logger.Debug("connection added", "conn_id", conn.Id, "room_id", conn.RoomId)
	return nil
}

// Remove is idempotent: removing an unknown connection id returns
// ErrNotFound and changes nothing.
func (r *repo) Remove(connId string) (*connection.Connection, error) {
	r.mu.Lock()
	conn, ok := r.byId[connId]
	if !ok {
		r.mu.Unlock()
		return nil, connection.ErrNotFound
	}

	delete(r.byId, connId)
	rc := r.rooms[conn.RoomId]
	r.mu.Unlock()

	if rc != nil {
		rc.mu.Lock()
		delete(rc.conns, connId)
		empty := len(rc.conns) == 0
		rc.mu.Unlock()

		if empty {
			r.mu.Lock()
			if cur, ok := r.rooms[conn.RoomId]; ok {
				cur.mu.RLock()
				if len(cur.conns) == 0 {
					delete(r.rooms, conn.RoomId)
				}
				cur.mu.RUnlock()
			}
			r.mu.Unlock()
		}
	}

	r.logger.Debug("connection removed", "conn_id", connId, "room_id", conn.RoomId)
	return conn, nil
}

func (r *repo) GetById(connId string) (*connection.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.byId[connId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

func (r *repo) GetByRoomId(roomId string) []*connection.Connection {
	r.mu.RLock()
	rc, ok := r.rooms[roomId]
	r.mu.RUnlock()

	if !ok {
		return nil
	}

	rc.mu.RLock()
	defer rc.mu.RUnlock()

	conns := make([]*connection.Connection, 0, len(rc.conns))
	for _, conn := range rc.conns {
		conns = append(conns, conn)
	}

	return conns
}

func (r *repo) CountByRoomId(roomId string) int {
	r.mu.RLock()
	rc, ok := r.rooms[roomId]
	r.mu.RUnlock()

	if !ok {
		return 0
	}

	rc.mu.RLock()
	defer rc.mu.RUnlock()

	return len(rc.conns)
}
