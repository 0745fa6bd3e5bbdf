package controller

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxroom/server/internal/domain"
	pubsubRedis "github.com/auxroom/server/internal/pubsub/redis"
	"github.com/auxroom/server/internal/repository/connection/inmemory"
	roomRedis "github.com/auxroom/server/internal/repository/room/redis"
	"github.com/auxroom/server/internal/service/poller"
	"github.com/auxroom/server/internal/service/room"
	"github.com/auxroom/server/pkg/randstr"
)

type stubPollerStatus struct{}

func (stubPollerStatus) GetStatus() poller.Status {
	return poller.Status{ActiveRoomIds: []string{}}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	logger := slog.Default()

	roomRepo := roomRedis.NewRepo(rc, time.Hour, 30*time.Second, time.Minute, logger)
	connRepo := inmemory.NewRepo(logger)
	ps := pubsubRedis.NewPubSub(rc, logger)
	generator := randstr.New([]byte("abcdefghijklmnopqrstuvwxyz0123456789"))

	roomService := room.NewService(roomRepo, connRepo, ps, generator, clockwork.NewRealClock(), 5*time.Second, logger)

	ctrl := NewController(roomService, stubPollerStatus{}, logger)
	server := httptest.NewServer(ctrl.GetMux())
	t.Cleanup(server.Close)

	return server
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var envelope map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	return resp, envelope
}

func createRoom(t *testing.T, server *httptest.Server, visibility string) createRoomResponse {
	t.Helper()

	resp, envelope := postJSON(t, server.URL+"/api/v1/room/create", map[string]any{
		"host_id":       "host1",
		"access_token":  "at",
		"refresh_token": "rt",
		"expires_at":    time.Now().Add(time.Hour).Unix(),
		"visibility":    visibility,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created createRoomResponse
	require.NoError(t, json.Unmarshal(envelope["data"], &created))
	require.NotEmpty(t, created.RoomId)
	require.NotEmpty(t, created.ConnectToken)

	return created
}

func dialWS(t *testing.T, server *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}

	return conn, resp, err
}

func TestCreateRoomValidation(t *testing.T) {
	server := newTestServer(t)

	resp, envelope := postJSON(t, server.URL+"/api/v1/room/create", map[string]any{
		"host_id":    "host1",
		"visibility": "friends-only",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, envelope, "errors")
}

func TestJoinPrivateRoomRequiresCode(t *testing.T) {
	server := newTestServer(t)
	created := createRoom(t, server, "private")
	require.NotEmpty(t, created.JoinCode)

	resp, _ := postJSON(t, server.URL+"/api/v1/room/"+created.RoomId+"/join", map[string]any{
		"join_code": "wrong1",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, envelope := postJSON(t, server.URL+"/api/v1/room/"+created.RoomId+"/join", map[string]any{
		"join_code": created.JoinCode,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var joined joinRoomResponse
	require.NoError(t, json.Unmarshal(envelope["data"], &joined))
	assert.NotEmpty(t, joined.MemberId)
	assert.NotEmpty(t, joined.ConnectToken)
}

func TestJoinUnknownRoom(t *testing.T) {
	server := newTestServer(t)

	resp, _ := postJSON(t, server.URL+"/api/v1/room/nope/join", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartRoomIsHostOnly(t *testing.T) {
	server := newTestServer(t)
	created := createRoom(t, server, "public")

	resp, _ := postJSON(t, server.URL+"/api/v1/room/"+created.RoomId+"/start", map[string]any{
		"host_id": "not-the-host",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = postJSON(t, server.URL+"/api/v1/room/"+created.RoomId+"/start", map[string]any{
		"host_id": "host1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebsocketHandshake(t *testing.T) {
	server := newTestServer(t)
	created := createRoom(t, server, "public")

	t.Run("rejects missing and invalid tokens", func(t *testing.T) {
		_, resp, err := dialWS(t, server, "")
		require.Error(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		_, resp, err = dialWS(t, server, "bogus")
		require.Error(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("connects with a minted token, once", func(t *testing.T) {
		conn, _, err := dialWS(t, server, created.ConnectToken)
		require.NoError(t, err)

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var event domain.Event
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, domain.EventTypeConnected, event.Type)

		var payload struct {
			RoomId string `json:"room_id"`
			Role   string `json:"role"`
		}
		require.NoError(t, json.Unmarshal(event.Payload, &payload))
		assert.Equal(t, created.RoomId, payload.RoomId)
		assert.Equal(t, domain.RoleHost, payload.Role)

		// the token was consumed by the first handshake
		_, resp, err := dialWS(t, server, created.ConnectToken)
		require.Error(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestWebsocketSyncRequest(t *testing.T) {
	server := newTestServer(t)
	created := createRoom(t, server, "public")

	conn, _, err := dialWS(t, server, created.ConnectToken)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "SYNC_REQUEST"}))

	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var event domain.Event
		require.NoError(t, conn.ReadJSON(&event))
		if event.Type != domain.EventTypeNowPlaying {
			continue
		}

		var playback domain.Playback
		require.NoError(t, json.Unmarshal(event.Payload, &playback))
		assert.Nil(t, playback.Track, "no observation yet, so the snapshot is empty")
		break
	}
}

func TestStatusEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data poller.Status `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, 0, envelope.Data.ActiveRoomCount)
}
