package models

// TorrentPage is one page of the tracker's JSON torrent API, passed through
// as received. The tracker owns the format; nothing here is validated or
// normalized.
type TorrentPage struct {
	IMDBID        string       `json:"imdb_id,omitempty"`
	TorrentsCount int          `json:"torrents_count"`
	Limit         int          `json:"limit"`
	Page          int          `json:"page"`
	Torrents      []APITorrent `json:"torrents"`
}

// APITorrent is one posting from the torrent API. Season, Episode and
// SizeBytes arrive as strings on the wire.
type APITorrent struct {
	ID               int    `json:"id"`
	Hash             string `json:"hash"`
	Filename         string `json:"filename"`
	EpisodeURL       string `json:"episode_url"`
	TorrentURL       string `json:"torrent_url"`
	MagnetURL        string `json:"magnet_url"`
	Title            string `json:"title"`
	IMDBID           string `json:"imdb_id"`
	Season           string `json:"season"`
	Episode          string `json:"episode"`
	SmallScreenshot  string `json:"small_screenshot"`
	LargeScreenshot  string `json:"large_screenshot"`
	Seeds            int    `json:"seeds"`
	Peers            int    `json:"peers"`
	DateReleasedUnix int64  `json:"date_released_unix"`
	SizeBytes        string `json:"size_bytes"`
}
