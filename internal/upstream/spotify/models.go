package spotify

type currentlyPlayingResponse struct {
	IsPlaying  bool  `json:"is_playing"`
	ProgressMs int   `json:"progress_ms"`
	Timestamp  int64 `json:"timestamp"`
	Context    *struct {
		Uri string `json:"uri"`
	} `json:"context"`
	Item *trackItem `json:"item"`
}

type trackItem struct {
	Id         string `json:"id"`
	Name       string `json:"name"`
	DurationMs int    `json:"duration_ms"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Images []struct {
			Url string `json:"url"`
		} `json:"images"`
	} `json:"album"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
