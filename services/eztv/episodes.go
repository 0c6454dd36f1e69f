package eztv

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"showdex/models"
)

// provider tags every torrent ref extracted from listing pages.
const provider = "EZTV"

// defaultQuality is assumed when a title carries no resolution token.
const defaultQuality = "480p"

var (
	imdbLinkPattern = regexp.MustCompile(`/title/([^/]+)/`)

	// Season/episode: optional "S", zero-padded season, "x" or "E"
	// separator, zero-padded episode. Matches S01E02, 1x02, s3E9.
	seasonPattern = regexp.MustCompile(`(?i)S?0*(\d+)[xE]0*(\d+)`)

	// Broadcast date: 4-digit year, then an MM.DD-style fragment. The
	// separators are wildcards on purpose; release groups are not
	// consistent about them.
	datePattern = regexp.MustCompile(`(\d{4}).(\d{2}.\d{2})`)

	qualityPattern = regexp.MustCompile(`(\d{3,4})p`)
	nonWordPattern = regexp.MustCompile(`\W`)
)

// ClassifyAddress detects the addressing scheme of a listing title. The
// season pattern is always tried first; a title that could match both
// schemes is season-addressed.
func ClassifyAddress(title string) models.EpisodeAddress {
	if m := seasonPattern.FindStringSubmatch(title); m != nil {
		season, _ := strconv.Atoi(m[1])
		episode, _ := strconv.Atoi(m[2])
		return models.EpisodeAddress{
			Kind:    models.AddressSeason,
			Season:  season,
			Episode: episode,
		}
	}
	if m := datePattern.FindStringSubmatch(title); m != nil {
		return models.EpisodeAddress{
			Kind:     models.AddressDate,
			Year:     m[1],
			MonthDay: nonWordPattern.ReplaceAllString(m[2], "-"),
		}
	}
	return models.EpisodeAddress{Kind: models.AddressNone}
}

// DetectQuality returns the resolution token of a title ("720p", "1080p")
// or the default when none is present.
func DetectQuality(title string) string {
	if q := qualityPattern.FindString(title); q != "" {
		return q
	}
	return defaultQuality
}

type slotKey struct {
	season  string
	episode string
	quality string
}

// Listing is the delta produced by one extraction pass over a show or
// search page. It is merged into a Show with ApplyTo; repeated extractions
// from different pages accumulate through repeated merges.
type Listing struct {
	// IMDB is the title id recovered from the rating block, empty when
	// the page has none.
	IMDB string

	// DateBased reports the addressing scheme of the last classified
	// row; Classified says whether any row classified at all, so a
	// rowless page never rewrites the flag on merge.
	DateBased  bool
	Classified bool

	Episodes models.EpisodeTable

	// Slots whose retained torrent arrived via a repack row. A repack
	// keeps its right to overwrite when merged onto an older table.
	repacks map[slotKey]bool
}

// ExtractEpisodes parses a show detail or search page into a Listing.
//
// Row handling is forgiving: rows without a magnet link or without a
// recognizable episode address are promotional noise and are skipped. A
// rating block whose link does not carry a title address is a page-shape
// violation and fails the whole extraction.
func ExtractEpisodes(doc Document) (Listing, error) {
	listing := Listing{
		Episodes: models.EpisodeTable{},
		repacks:  map[slotKey]bool{},
	}

	rating := doc.Find(`div[itemtype="http://schema.org/AggregateRating"]`).Find(`a[target="_blank"]`)
	if href, ok := rating.Attr("href"); ok {
		m := imdbLinkPattern.FindStringSubmatch(href)
		if m == nil {
			return Listing{}, fmt.Errorf("rating link %q does not match the title address pattern", href)
		}
		listing.IMDB = m[1]
	}

	doc.Find(`tr.forum_header_border[name="hover"]`).Each(func(_ int, row Selection) {
		magnet, ok := row.Find("td").Eq(2).Find("a.magnet").Attr("href")
		if !ok || magnet == "" {
			return
		}

		// The codec tag looks enough like a resolution or date token
		// to confuse the patterns below, so it goes first.
		title := strings.Replace(row.Find("td").Eq(1).Text(), "x264", "", 1)

		addr := ClassifyAddress(title)
		if addr.Kind == models.AddressNone {
			return
		}
		listing.Classified = true
		listing.DateBased = addr.Kind == models.AddressDate

		season, episode, ok := addr.Keys()
		if !ok {
			return
		}

		quality := DetectQuality(title)
		repack := strings.Contains(strings.ToLower(title), "repack")
		key := slotKey{season: season, episode: episode, quality: quality}
		if _, taken := listing.Episodes.Get(season, episode, quality); taken && !repack {
			return
		}
		listing.Episodes.Set(season, episode, quality, models.TorrentRef{
			URL:      magnet,
			Provider: provider,
		})
		listing.repacks[key] = repack
	})

	return listing, nil
}

// ApplyTo merges the listing into show. The IMDb id and the addressing
// flag are written only when the page actually produced them. Slots follow
// the same override policy as row processing: an occupant stays unless the
// incoming torrent was posted as a repack.
func (l Listing) ApplyTo(show *models.Show) {
	if l.IMDB != "" {
		show.IMDB = l.IMDB
	}
	if l.Classified {
		show.DateBased = l.DateBased
	}
	if show.Episodes == nil {
		show.Episodes = models.EpisodeTable{}
	}
	for season, episodes := range l.Episodes {
		for episode, qualities := range episodes {
			for quality, ref := range qualities {
				key := slotKey{season: season, episode: episode, quality: quality}
				if _, taken := show.Episodes.Get(season, episode, quality); taken && !l.repacks[key] {
					continue
				}
				show.Episodes.Set(season, episode, quality, ref)
			}
		}
	}
}
