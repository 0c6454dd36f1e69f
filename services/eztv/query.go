package eztv

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultPage  = 1
	defaultLimit = 30
)

// TorrentQuery configures one torrent API page request. Zero values take
// the API defaults; out-of-range values are passed through untouched, the
// API is the authority on bounds.
type TorrentQuery struct {
	Page  int
	Limit int
	IMDB  string
}

// Values renders the query the way the torrent API expects it. A leading
// "tt" is stripped from the IMDb id; an empty id emits no imdb_id key.
func (q TorrentQuery) Values() url.Values {
	page := q.Page
	if page == 0 {
		page = defaultPage
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultLimit
	}

	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	if imdb := strings.TrimPrefix(q.IMDB, "tt"); imdb != "" {
		v.Set("imdb_id", imdb)
	}
	return v
}
