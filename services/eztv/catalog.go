package eztv

import (
	"fmt"
	"regexp"
	"strconv"

	"showdex/models"
)

var showLinkPattern = regexp.MustCompile(`/shows/(\d+)/(.*)/`)

// ExtractShows parses the catalog page into show stubs, one per listing
// anchor, in document order. An anchor whose href does not carry the
// /shows/<id>/<slug>/ address aborts the whole extraction: a catalog page
// that fails its own link shape cannot be trusted.
func ExtractShows(doc Document) ([]models.ShowStub, error) {
	var (
		stubs   []models.ShowStub
		iterErr error
	)
	doc.Find("a.thread_link").Each(func(_ int, anchor Selection) {
		if iterErr != nil {
			return
		}
		href, _ := anchor.Attr("href")
		m := showLinkPattern.FindStringSubmatch(href)
		if m == nil {
			iterErr = fmt.Errorf("catalog anchor %q does not match the show address pattern", href)
			return
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			iterErr = fmt.Errorf("catalog anchor %q: bad show id: %w", href, err)
			return
		}
		stubs = append(stubs, models.ShowStub{
			Name: anchor.Text(),
			ID:   id,
			Slug: m[2],
		})
	})
	if iterErr != nil {
		return nil, iterErr
	}
	return stubs, nil
}
