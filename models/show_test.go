package models

import "testing"

func TestEpisodeTableSetAndGet(t *testing.T) {
	table := EpisodeTable{}
	table.Set("1", "2", "720p", TorrentRef{URL: "magnet:?xt=A", Provider: "EZTV"})
	table.Set("1", "2", "1080p", TorrentRef{URL: "magnet:?xt=B", Provider: "EZTV"})
	table.Set("2020", "04-15", "480p", TorrentRef{URL: "magnet:?xt=C", Provider: "EZTV"})

	if table.Count() != 3 {
		t.Fatalf("expected 3 slots, got %d", table.Count())
	}
	ref, ok := table.Get("1", "2", "720p")
	if !ok || ref.URL != "magnet:?xt=A" {
		t.Fatalf("unexpected slot: %+v ok=%v", ref, ok)
	}
	if _, ok := table.Get("1", "3", "720p"); ok {
		t.Fatalf("expected empty slot to report !ok")
	}

	// Overwriting a slot does not change the count.
	table.Set("1", "2", "720p", TorrentRef{URL: "magnet:?xt=D", Provider: "EZTV"})
	if table.Count() != 3 {
		t.Fatalf("expected overwrite to keep count at 3, got %d", table.Count())
	}
	ref, _ = table.Get("1", "2", "720p")
	if ref.URL != "magnet:?xt=D" {
		t.Fatalf("overwrite lost: %+v", ref)
	}
}

func TestEpisodeAddressKeys(t *testing.T) {
	cases := []struct {
		name    string
		addr    EpisodeAddress
		season  string
		episode string
		ok      bool
	}{
		{"season", EpisodeAddress{Kind: AddressSeason, Season: 3, Episode: 4}, "3", "4", true},
		{"zero season discarded", EpisodeAddress{Kind: AddressSeason, Season: 0, Episode: 4}, "", "", false},
		{"zero episode discarded", EpisodeAddress{Kind: AddressSeason, Season: 3, Episode: 0}, "", "", false},
		{"date", EpisodeAddress{Kind: AddressDate, Year: "2020", MonthDay: "04-15"}, "2020", "04-15", true},
		{"empty date discarded", EpisodeAddress{Kind: AddressDate}, "", "", false},
		{"unclassified", EpisodeAddress{}, "", "", false},
	}
	for _, tc := range cases {
		season, episode, ok := tc.addr.Keys()
		if season != tc.season || episode != tc.episode || ok != tc.ok {
			t.Fatalf("%s: got (%q, %q, %v), want (%q, %q, %v)",
				tc.name, season, episode, ok, tc.season, tc.episode, tc.ok)
		}
	}
}
