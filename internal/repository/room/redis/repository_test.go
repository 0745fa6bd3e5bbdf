package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxroom/server/internal/repository/room"
)

func newTestRepo(t *testing.T) (*miniredis.Miniredis, *repo) {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	return s, NewRepo(rc, time.Hour, 30*time.Second, time.Minute, slog.Default())
}

func TestRoomRoundTrip(t *testing.T) {
	_, r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetRoom(ctx, &room.SetRoomParams{
		RoomId:     "r1",
		HostId:     "host1",
		IsActive:   false,
		Visibility: "private",
		JoinCode:   "abc123",
		CreatedAt:  1700000000,
	}))

	rm, err := r.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "host1", rm.HostId)
	assert.False(t, rm.IsActive)
	assert.Equal(t, "private", rm.Visibility)
	assert.Equal(t, "abc123", rm.JoinCode)
	assert.Equal(t, int64(1700000000), rm.CreatedAt)

	_, err = r.GetRoom(ctx, "missing")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestActiveRoomSet(t *testing.T) {
	_, r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetRoom(ctx, &room.SetRoomParams{RoomId: "r1", HostId: "h1"}))
	require.NoError(t, r.SetRoom(ctx, &room.SetRoomParams{RoomId: "r2", HostId: "h2"}))

	require.NoError(t, r.SetRoomActive(ctx, "r1", true))
	require.NoError(t, r.SetRoomActive(ctx, "r2", true))

	roomIds, err := r.GetActiveRoomIds(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"r1", "r2"}, roomIds)

	rm, err := r.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, rm.IsActive)

	require.NoError(t, r.SetRoomActive(ctx, "r1", false))
	roomIds, err = r.GetActiveRoomIds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, roomIds)

	assert.ErrorIs(t, r.SetRoomActive(ctx, "missing", true), room.ErrRoomNotFound)
}

func TestRemoveRoomClearsEverything(t *testing.T) {
	_, r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetRoom(ctx, &room.SetRoomParams{RoomId: "r1", HostId: "h1"}))
	require.NoError(t, r.SetRoomActive(ctx, "r1", true))
	require.NoError(t, r.AddMember(ctx, &room.AddMemberParams{RoomId: "r1", MemberId: "m1"}))
	require.NoError(t, r.SetPlayback(ctx, &room.SetPlaybackParams{
		RoomId:   "r1",
		Playback: room.Playback{TrackId: "t1", IsPlaying: true},
	}))

	require.NoError(t, r.RemoveRoom(ctx, "r1"))

	_, err := r.GetRoom(ctx, "r1")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
	_, err = r.GetPlayback(ctx, "r1")
	assert.ErrorIs(t, err, room.ErrPlaybackNotFound)
	memberIds, err := r.GetMemberIds(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, memberIds)
	roomIds, err := r.GetActiveRoomIds(ctx)
	require.NoError(t, err)
	assert.Empty(t, roomIds)
}

func TestPlaybackExpires(t *testing.T) {
	s, r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetPlayback(ctx, &room.SetPlaybackParams{
		RoomId: "r1",
		Playback: room.Playback{
			TrackId:     "t1",
			TrackTitle:  "Song",
			TrackArtist: "Artist",
			DurationMs:  180000,
			IsPlaying:   true,
			ProgressMs:  5000,
			ObservedAt:  1700000000000,
		},
	}))

	playback, err := r.GetPlayback(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "t1", playback.TrackId)
	assert.True(t, playback.IsPlaying)
	assert.Equal(t, 5000, playback.ProgressMs)

	// stale state must disappear, not accumulate
	s.FastForward(time.Minute)
	_, err = r.GetPlayback(ctx, "r1")
	assert.ErrorIs(t, err, room.ErrPlaybackNotFound)
}

func TestMembers(t *testing.T) {
	_, r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.AddMember(ctx, &room.AddMemberParams{RoomId: "r1", MemberId: "m1"}))
	require.NoError(t, r.AddMember(ctx, &room.AddMemberParams{RoomId: "r1", MemberId: "m2"}))

	memberIds, err := r.GetMemberIds(ctx, "r1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"m1", "m2"}, memberIds)

	require.NoError(t, r.RemoveMember(ctx, &room.RemoveMemberParams{RoomId: "r1", MemberId: "m1"}))
	assert.ErrorIs(t, r.RemoveMember(ctx, &room.RemoveMemberParams{RoomId: "r1", MemberId: "m1"}), room.ErrMemberNotFound)
}

func TestCredentialsRoundTrip(t *testing.T) {
	_, r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetCredentials(ctx, &room.SetCredentialsParams{
		Identity: "host1",
		Credentials: room.Credentials{
			AccessToken:  "at",
			RefreshToken: "rt",
			ExpiresAt:    1700003600,
		},
	}))

	creds, err := r.GetCredentials(ctx, "host1")
	require.NoError(t, err)
	assert.Equal(t, "at", creds.AccessToken)
	assert.Equal(t, "rt", creds.RefreshToken)
	assert.Equal(t, int64(1700003600), creds.ExpiresAt)

	_, err = r.GetCredentials(ctx, "missing")
	assert.ErrorIs(t, err, room.ErrCredentialsNotFound)
}

func TestConnectTokenConsumedOnce(t *testing.T) {
	_, r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetConnectToken(ctx, &room.SetConnectTokenParams{
		Token:    "tok1",
		RoomId:   "r1",
		MemberId: "m1",
		Role:     "viewer",
	}))

	token, err := r.ConsumeConnectToken(ctx, "tok1")
	require.NoError(t, err)
	assert.Equal(t, "r1", token.RoomId)
	assert.Equal(t, "m1", token.MemberId)
	assert.Equal(t, "viewer", token.Role)

	_, err = r.ConsumeConnectToken(ctx, "tok1")
	assert.ErrorIs(t, err, room.ErrConnectTokenNotFound)
}
