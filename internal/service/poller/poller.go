package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/pubsub"
	"github.com/auxroom/server/internal/repository/room"
	"github.com/auxroom/server/internal/upstream/spotify"
)

type iUpstream interface {
	CurrentPlayback(ctx context.Context, creds domain.Credentials) (*domain.Playback, error)
	Refresh(ctx context.Context, creds domain.Credentials) (domain.Credentials, error)
}

type iRoomRepo interface {
	GetRoom(ctx context.Context, roomId string) (room.Room, error)
	GetActiveRoomIds(ctx context.Context) ([]string, error)
	SetRoomActive(ctx context.Context, roomId string, isActive bool) error
	SetPlayback(context.Context, *room.SetPlaybackParams) error
	GetCredentials(ctx context.Context, identity string) (room.Credentials, error)
	SetCredentials(context.Context, *room.SetCredentialsParams) error
}

// poller owns one room's polling loop: it borrows the host's credentials,
// reads upstream on a fixed cadence and propagates material changes. It
// never mutates room membership.
type poller struct {
	roomId         string
	creds          domain.Credentials
	last           *domain.Playback
	lastAt         time.Time
	errCount       int
	pollInterval   time.Duration
	seekTolerance  time.Duration
	errorThreshold int
	roomRepo       iRoomRepo
	upstream       iUpstream
	pub            pubsub.Publisher
	clock          clockwork.Clock
	logger         *slog.Logger
}

func (p *poller) run(ctx context.Context) {
	ticker := p.clock.NewTicker(p.pollInterval)
	defer ticker.Stop()

	p.logger.Info("poller started", "room_id", p.roomId)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller cancelled", "room_id", p.roomId)
			return
		case <-ticker.Chan():
			if stop := p.tick(ctx); stop {
				return
			}
		}
	}
}

// tick runs one poll. Returns true when the poller must terminate: failed
// credential refresh or the consecutive-error breaker tripping. Both are
// fatal for this room only.
func (p *poller) tick(ctx context.Context) bool {
	tickCtx, cancel := context.WithTimeout(ctx, p.pollInterval)
	defer cancel()

	if p.creds.IsExpired(p.clock.Now()) {
		if !p.refreshCredentials(tickCtx) {
			p.deactivateRoom("credential refresh failed")
			return true
		}
	}

	playback, err := p.upstream.CurrentPlayback(tickCtx, p.creds)
	if err != nil {
		if errors.Is(err, spotify.ErrTokenExpired) {
			// the token died before its stated expiry; refresh now and
			// read again next tick. Still counts toward the breaker so a
			// provider that rejects every freshly minted token cannot keep
			// the room in a refresh loop forever.
			p.errCount++
			if p.errCount >= p.errorThreshold {
				p.deactivateRoom("upstream error threshold reached")
				return true
			}
			if !p.refreshCredentials(tickCtx) {
				p.deactivateRoom("credential refresh failed")
				return true
			}
			return false
		}

		p.errCount++
		p.logger.Warn("upstream read failed",
			"room_id", p.roomId,
			"consecutive_errors", p.errCount,
			"error", err,
		)
		if p.errCount >= p.errorThreshold {
			p.deactivateRoom("upstream error threshold reached")
			return true
		}
		return false
	}

	p.errCount = 0
	now := p.clock.Now()

	// playback disappeared while we last saw it playing: synthesize one
	// paused transition so viewers don't hold stale playing-state
	if noTrack(playback) && !noTrack(p.last) && p.last.IsPlaying {
		paused := *p.last
		paused.IsPlaying = false
		paused.ObservedAt = now.UnixMilli()
		p.observe(tickCtx, &paused, now)
		return false
	}

	if playbackChanged(p.last, p.lastAt, playback, now, p.seekTolerance) {
		if playback == nil {
			playback = &domain.Playback{ObservedAt: now.UnixMilli()}
		}
		p.observe(tickCtx, playback, now)
	}

	return false
}

// observe persists an observation and publishes it as a NOW_PLAYING event,
// making it the new comparison baseline.
func (p *poller) observe(ctx context.Context, playback *domain.Playback, now time.Time) {
	if err := p.roomRepo.SetPlayback(ctx, &room.SetPlaybackParams{
		RoomId:   p.roomId,
		Playback: room.PlaybackFromDomain(playback),
	}); err != nil {
		p.logger.Warn("failed to persist playback", "room_id", p.roomId, "error", err)
	}

	event, err := domain.NewEvent(domain.EventTypeNowPlaying, playback, now.UnixMilli())
	if err != nil {
		p.logger.Warn("failed to build event", "room_id", p.roomId, "error", err)
		return
	}

	if err := p.pub.Publish(ctx, p.roomId, event); err != nil {
		p.logger.Warn("failed to publish playback", "room_id", p.roomId, "error", err)
	}

	p.last = playback
	p.lastAt = now
}

func (p *poller) refreshCredentials(ctx context.Context) bool {
	refreshed, err := p.upstream.Refresh(ctx, p.creds)
	if err != nil {
		p.logger.Error("failed to refresh credentials", "room_id", p.roomId, "error", err)
		return false
	}

	if err := p.roomRepo.SetCredentials(ctx, &room.SetCredentialsParams{
		Identity:    refreshed.Identity,
		Credentials: room.CredentialsFromDomain(refreshed),
	}); err != nil {
		p.logger.Warn("failed to persist refreshed credentials", "room_id", p.roomId, "error", err)
	}

	p.creds = refreshed
	return true
}

// deactivateRoom clears the room's active flag so the supervisor does not
// restart the poller. Uses a fresh context: the tick context may already
// be dead.
func (p *poller) deactivateRoom(reason string) {
	p.logger.Error("stopping poller", "room_id", p.roomId, "reason", reason)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.roomRepo.SetRoomActive(ctx, p.roomId, false); err != nil {
		p.logger.Error("failed to deactivate room", "room_id", p.roomId, "error", err)
	}
}

func noTrack(playback *domain.Playback) bool {
	return playback == nil || playback.Track == nil
}
