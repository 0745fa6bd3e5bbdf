package domain

import "time"

// Credentials is an access/refresh token pair scoped to one upstream
// identity. ExpiresAt is a unix timestamp in seconds.
type Credentials struct {
	Identity     string `json:"identity"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

func (c Credentials) IsExpired(now time.Time) bool {
	return now.Unix() >= c.ExpiresAt
}
