package room

type Room struct {
	HostId     string `redis:"host_id"`
	IsActive   bool   `redis:"is_active"`
	Visibility string `redis:"visibility"`
	JoinCode   string `redis:"join_code"`
	CreatedAt  int64  `redis:"created_at"`
}

// Playback is the flattened hash form of a playback observation. An empty
// TrackId means nothing is playing.
type Playback struct {
	TrackId     string `redis:"track_id"`
	TrackTitle  string `redis:"track_title"`
	TrackArtist string `redis:"track_artist"`
	AlbumArtUrl string `redis:"album_art_url"`
	DurationMs  int    `redis:"duration_ms"`
	IsPlaying   bool   `redis:"is_playing"`
	ProgressMs  int    `redis:"progress_ms"`
	ContextUri  string `redis:"context_uri"`
	ObservedAt  int64  `redis:"observed_at"`
}

type Credentials struct {
	AccessToken  string `redis:"access_token"`
	RefreshToken string `redis:"refresh_token"`
	ExpiresAt    int64  `redis:"expires_at"`
}

// ConnectToken is the short-lived handshake record minted by the join
// endpoint and consumed once by the websocket upgrade.
type ConnectToken struct {
	RoomId   string `redis:"room_id"`
	MemberId string `redis:"member_id"`
	Role     string `redis:"role"`
}
