package eztv

import "testing"

func TestTorrentQueryValues(t *testing.T) {
	tests := []struct {
		name  string
		query TorrentQuery
		page  string
		limit string
		imdb  string
	}{
		{
			name:  "defaults",
			query: TorrentQuery{},
			page:  "1",
			limit: "30",
			imdb:  "",
		},
		{
			name:  "explicit values",
			query: TorrentQuery{Page: 3, Limit: 50},
			page:  "3",
			limit: "50",
			imdb:  "",
		},
		{
			name:  "tt prefix stripped",
			query: TorrentQuery{IMDB: "tt6048596"},
			page:  "1",
			limit: "30",
			imdb:  "6048596",
		},
		{
			name:  "bare id passes through",
			query: TorrentQuery{IMDB: "6048596"},
			page:  "1",
			limit: "30",
			imdb:  "6048596",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.query.Values()
			if got := v.Get("page"); got != tt.page {
				t.Errorf("page = %q, want %q", got, tt.page)
			}
			if got := v.Get("limit"); got != tt.limit {
				t.Errorf("limit = %q, want %q", got, tt.limit)
			}
			if got := v.Get("imdb_id"); got != tt.imdb {
				t.Errorf("imdb_id = %q, want %q", got, tt.imdb)
			}
			if tt.imdb == "" {
				if _, present := v["imdb_id"]; present {
					t.Errorf("imdb_id must be omitted entirely, got %v", v)
				}
			}
		})
	}
}
