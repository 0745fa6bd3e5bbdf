package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/auxroom/server/internal/domain"
)

type Config struct {
	ApiBaseUrl      string
	AccountsBaseUrl string
	ClientId        string
	ClientSecret    string
	RequestTimeout  time.Duration
}

type Client struct {
	api          *resty.Client
	accounts     *resty.Client
	clientId     string
	clientSecret string
}

func NewClient(cfg *Config) *Client {
	return &Client{
		api:          resty.New().SetBaseURL(cfg.ApiBaseUrl).SetTimeout(cfg.RequestTimeout),
		accounts:     resty.New().SetBaseURL(cfg.AccountsBaseUrl).SetTimeout(cfg.RequestTimeout),
		clientId:     cfg.ClientId,
		clientSecret: cfg.ClientSecret,
	}
}

// CurrentPlayback reads the host's currently-playing state. Returns nil
// when nothing is playing. Rate-limit and server errors are retried with
// backoff inside the caller's context deadline.
func (c *Client) CurrentPlayback(ctx context.Context, creds domain.Credentials) (*domain.Playback, error) {
	var playback *domain.Playback

	operation := func() error {
		resp, err := c.api.R().
			SetContext(ctx).
			SetAuthToken(creds.AccessToken).
			SetResult(&currentlyPlayingResponse{}).
			Get("/v1/me/player/currently-playing")
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode() == http.StatusNoContent:
			playback = nil
			return nil
		case resp.StatusCode() == http.StatusOK:
			playback = toDomainPlayback(resp.Result().(*currentlyPlayingResponse))
			return nil
		case resp.StatusCode() == http.StatusUnauthorized:
			return backoff.Permanent(ErrTokenExpired)
		case resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500:
			return fmt.Errorf("upstream returned %d", resp.StatusCode())
		default:
			return backoff.Permanent(fmt.Errorf("upstream returned %d", resp.StatusCode()))
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 500 * time.Millisecond
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("failed to get current playback: %w", err)
	}

	return playback, nil
}

// Refresh exchanges the refresh token for a fresh access token. Idempotent:
// the refresh token stays valid, so a timed-out call is safe to repeat.
func (c *Client) Refresh(ctx context.Context, creds domain.Credentials) (domain.Credentials, error) {
	resp, err := c.accounts.R().
		SetContext(ctx).
		SetBasicAuth(c.clientId, c.clientSecret).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": creds.RefreshToken,
		}).
		SetResult(&tokenResponse{}).
		Post("/api/token")
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to refresh token: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return domain.Credentials{}, fmt.Errorf("%w: upstream returned %d", ErrRefreshFailed, resp.StatusCode())
	}

	token := resp.Result().(*tokenResponse)
	refreshed := domain.Credentials{
		Identity:     creds.Identity,
		AccessToken:  token.AccessToken,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    time.Now().Unix() + token.ExpiresIn,
	}
	// the provider may rotate the refresh token
	if token.RefreshToken != "" {
		refreshed.RefreshToken = token.RefreshToken
	}

	return refreshed, nil
}

func toDomainPlayback(resp *currentlyPlayingResponse) *domain.Playback {
	playback := domain.Playback{
		IsPlaying:  resp.IsPlaying,
		ProgressMs: resp.ProgressMs,
		ObservedAt: resp.Timestamp,
	}
	if playback.ObservedAt == 0 {
		playback.ObservedAt = time.Now().UnixMilli()
	}
	if resp.Context != nil {
		playback.ContextUri = resp.Context.Uri
	}

	if resp.Item == nil {
		// nothing playing: per the data model a null track carries no
		// position and no playing flag
		return &domain.Playback{ObservedAt: playback.ObservedAt}
	}

	artists := make([]string, 0, len(resp.Item.Artists))
	for _, a := range resp.Item.Artists {
		artists = append(artists, a.Name)
	}

	track := domain.Track{
		Id:         resp.Item.Id,
		Title:      resp.Item.Name,
		Artist:     strings.Join(artists, ", "),
		DurationMs: resp.Item.DurationMs,
	}
	if len(resp.Item.Album.Images) > 0 {
		track.AlbumArtUrl = resp.Item.Album.Images[0].Url
	}
	playback.Track = &track

	return &playback
}
