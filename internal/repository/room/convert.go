package room

import "github.com/auxroom/server/internal/domain"

func (p Playback) ToDomain() *domain.Playback {
	playback := domain.Playback{
		IsPlaying:  p.IsPlaying,
		ProgressMs: p.ProgressMs,
		ContextUri: p.ContextUri,
		ObservedAt: p.ObservedAt,
	}
	if p.TrackId != "" {
		playback.Track = &domain.Track{
			Id:          p.TrackId,
			Title:       p.TrackTitle,
			Artist:      p.TrackArtist,
			AlbumArtUrl: p.AlbumArtUrl,
			DurationMs:  p.DurationMs,
		}
	}

	return &playback
}

func PlaybackFromDomain(playback *domain.Playback) Playback {
	if playback == nil {
		return Playback{}
	}

	p := Playback{
		IsPlaying:  playback.IsPlaying,
		ProgressMs: playback.ProgressMs,
		ContextUri: playback.ContextUri,
		ObservedAt: playback.ObservedAt,
	}
	if playback.Track != nil {
		p.TrackId = playback.Track.Id
		p.TrackTitle = playback.Track.Title
		p.TrackArtist = playback.Track.Artist
		p.AlbumArtUrl = playback.Track.AlbumArtUrl
		p.DurationMs = playback.Track.DurationMs
	}

	return p
}

func (c Credentials) ToDomain(identity string) domain.Credentials {
	return domain.Credentials{
		Identity:     identity,
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    c.ExpiresAt,
	}
}

func CredentialsFromDomain(creds domain.Credentials) Credentials {
	return Credentials{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    creds.ExpiresAt,
	}
}
