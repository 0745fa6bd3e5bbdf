package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxroom/server/internal/domain"
)

const currentlyPlayingBody = `{
	"is_playing": true,
	"progress_ms": 4100,
	"timestamp": 1735000000000,
	"context": {"uri": "spotify:playlist:xyz"},
	"item": {
		"id": "track1",
		"name": "Song One",
		"duration_ms": 180000,
		"artists": [{"name": "Artist A"}, {"name": "Artist B"}],
		"album": {"images": [{"url": "https://img.example/1.jpg"}]}
	}
}`

func newTestClient(apiUrl, accountsUrl string) *Client {
	return NewClient(&Config{
		ApiBaseUrl:      apiUrl,
		AccountsBaseUrl: accountsUrl,
		ClientId:        "cid",
		ClientSecret:    "csecret",
		RequestTimeout:  time.Second,
	})
}

func testCreds() domain.Credentials {
	return domain.Credentials{
		Identity:     "host1",
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}
}

func TestCurrentPlayback(t *testing.T) {
	t.Run("playing track", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/me/player/currently-playing", r.URL.Path)
			assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(currentlyPlayingBody))
		}))
		defer srv.Close()

		playback, err := newTestClient(srv.URL, srv.URL).CurrentPlayback(context.Background(), testCreds())
		require.NoError(t, err)
		require.NotNil(t, playback)
		require.NotNil(t, playback.Track)
		assert.Equal(t, "track1", playback.Track.Id)
		assert.Equal(t, "Song One", playback.Track.Title)
		assert.Equal(t, "Artist A, Artist B", playback.Track.Artist)
		assert.Equal(t, "https://img.example/1.jpg", playback.Track.AlbumArtUrl)
		assert.Equal(t, 180000, playback.Track.DurationMs)
		assert.True(t, playback.IsPlaying)
		assert.Equal(t, 4100, playback.ProgressMs)
		assert.Equal(t, "spotify:playlist:xyz", playback.ContextUri)
		assert.Equal(t, int64(1735000000000), playback.ObservedAt)
	})

	t.Run("nothing playing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		playback, err := newTestClient(srv.URL, srv.URL).CurrentPlayback(context.Background(), testCreds())
		require.NoError(t, err)
		assert.Nil(t, playback)
	})

	t.Run("expired token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL, srv.URL).CurrentPlayback(context.Background(), testCreds())
		require.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("transient errors retried", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(currentlyPlayingBody))
		}))
		defer srv.Close()

		playback, err := newTestClient(srv.URL, srv.URL).CurrentPlayback(context.Background(), testCreds())
		require.NoError(t, err)
		require.NotNil(t, playback)
		assert.GreaterOrEqual(t, calls, 2)
	})
}

func TestRefresh(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/token", r.URL.Path)
			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "cid", user)
			assert.Equal(t, "csecret", pass)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			assert.Equal(t, "rt", r.PostForm.Get("refresh_token"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "at2", "expires_in": 3600}`))
		}))
		defer srv.Close()

		refreshed, err := newTestClient(srv.URL, srv.URL).Refresh(context.Background(), testCreds())
		require.NoError(t, err)
		assert.Equal(t, "at2", refreshed.AccessToken)
		assert.Equal(t, "rt", refreshed.RefreshToken, "refresh token kept when not rotated")
		assert.Equal(t, "host1", refreshed.Identity)
		assert.Greater(t, refreshed.ExpiresAt, time.Now().Unix())
	})

	t.Run("rotated refresh token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "at2", "refresh_token": "rt2", "expires_in": 3600}`))
		}))
		defer srv.Close()

		refreshed, err := newTestClient(srv.URL, srv.URL).Refresh(context.Background(), testCreds())
		require.NoError(t, err)
		assert.Equal(t, "rt2", refreshed.RefreshToken)
	})

	t.Run("rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL, srv.URL).Refresh(context.Background(), testCreds())
		require.ErrorIs(t, err, ErrRefreshFailed)
	})
}
