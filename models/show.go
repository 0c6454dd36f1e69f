package models

import "strconv"

// ShowStub identifies one show on the tracker's catalog page. ID and Slug
// together form the address of the show's detail page.
type ShowStub struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
	Slug string `json:"slug"`
}

// TorrentRef is the retained torrent for one episode/quality slot. The
// listing pages do not publish swarm numbers, so Seeds and Peers stay zero;
// callers wanting live counts have to merge them from the torrent API.
type TorrentRef struct {
	URL      string `json:"url"`
	Seeds    int    `json:"seeds"`
	Peers    int    `json:"peers"`
	Provider string `json:"provider"`
}

// EpisodeTable maps season -> episode -> quality -> torrent. Keys are
// strings: decimal season and episode numbers for season-addressed shows
// ("1", "13"), broadcast year and month-day for date-addressed shows
// ("2020", "04-15"). Quality keys look like "720p".
type EpisodeTable map[string]map[string]map[string]TorrentRef

// Set stores ref in the slot, creating intermediate maps as needed.
func (t EpisodeTable) Set(season, episode, quality string, ref TorrentRef) {
	episodes, ok := t[season]
	if !ok {
		episodes = map[string]map[string]TorrentRef{}
		t[season] = episodes
	}
	qualities, ok := episodes[episode]
	if !ok {
		qualities = map[string]TorrentRef{}
		episodes[episode] = qualities
	}
	qualities[quality] = ref
}

// Get looks up the slot and reports whether it is occupied.
func (t EpisodeTable) Get(season, episode, quality string) (TorrentRef, bool) {
	ref, ok := t[season][episode][quality]
	return ref, ok
}

// Count returns the number of occupied slots.
func (t EpisodeTable) Count() int {
	n := 0
	for _, episodes := range t {
		for _, qualities := range episodes {
			n += len(qualities)
		}
	}
	return n
}

// Show is a catalog stub augmented with everything its listing pages yield.
// Episode tables only ever grow: re-extracting merges into the existing
// table instead of replacing it.
type Show struct {
	ShowStub
	IMDB      string       `json:"imdb,omitempty"`
	DateBased bool         `json:"dateBased"`
	Episodes  EpisodeTable `json:"episodes"`
}

// AddressKind tags the episode addressing scheme detected in a listing title.
type AddressKind int

const (
	AddressNone AddressKind = iota
	AddressSeason
	AddressDate
)

// EpisodeAddress is the classified address of one listing row: a
// season/episode pair, a broadcast year plus month-day, or nothing.
type EpisodeAddress struct {
	Kind     AddressKind
	Season   int    // season-addressed only
	Episode  int    // season-addressed only
	Year     string // date-addressed only
	MonthDay string // date-addressed only
}

// Keys returns the episode table keys for the address. The bool is false
// when the address cannot be recorded: unclassified rows, and season
// matches where either component is zero.
func (a EpisodeAddress) Keys() (season, episode string, ok bool) {
	switch a.Kind {
	case AddressSeason:
		if a.Season == 0 || a.Episode == 0 {
			return "", "", false
		}
		return strconv.Itoa(a.Season), strconv.Itoa(a.Episode), true
	case AddressDate:
		if a.Year == "" || a.MonthDay == "" {
			return "", "", false
		}
		return a.Year, a.MonthDay, true
	}
	return "", "", false
}
