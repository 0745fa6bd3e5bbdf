package poller

import (
	"time"

	"github.com/auxroom/server/internal/domain"
)

// playbackChanged decides whether a fresh observation is materially
// different from the previous one. This gates every publish, so it governs
// both correctness and notification volume:
//
//  1. track identity differs
//  2. playing/paused flag differs
//  3. position drifted more than the tolerance from where elapsed
//     wall-clock time says it should be (catches seeks without flooding
//     updates from normal playback drift)
func playbackChanged(prev *domain.Playback, prevAt time.Time, next *domain.Playback, now time.Time, tolerance time.Duration) bool {
	prevNone := prev == nil || prev.Track == nil
	nextNone := next == nil || next.Track == nil

	if prevNone || nextNone {
		return prevNone != nextNone
	}

	if prev.Track.Id != next.Track.Id {
		return true
	}

	if prev.IsPlaying != next.IsPlaying {
		return true
	}

	expected := prev.ProgressMs
	if prev.IsPlaying {
		expected += int(now.Sub(prevAt).Milliseconds())
		if prev.Track.DurationMs > 0 && expected > prev.Track.DurationMs {
			expected = prev.Track.DurationMs
		}
	}

	drift := next.ProgressMs - expected
	if drift < 0 {
		drift = -drift
	}

	return drift > int(tolerance.Milliseconds())
}
