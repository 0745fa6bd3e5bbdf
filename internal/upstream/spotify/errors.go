package spotify

import "errors"

var (
	// ErrTokenExpired means the access token was rejected; the caller
	// should refresh and retry on its next tick.
	ErrTokenExpired = errors.New("access token expired")
	// ErrRefreshFailed means the refresh token itself was rejected. Fatal
	// for the owning session.
	ErrRefreshFailed = errors.New("token refresh failed")
)
