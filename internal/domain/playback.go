package domain

// Track describes the currently playing item as reported by the upstream
// provider.
type Track struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	AlbumArtUrl string `json:"album_art_url,omitempty"`
	DurationMs  int    `json:"duration_ms"`
}

// Playback is one observation of the host's player. A nil Track means
// nothing is playing, which implies ProgressMs == 0 and IsPlaying == false.
type Playback struct {
	Track      *Track `json:"track"`
	IsPlaying  bool   `json:"is_playing"`
	ProgressMs int    `json:"progress_ms"`
	ContextUri string `json:"context_uri,omitempty"`
	ObservedAt int64  `json:"observed_at"`
}
