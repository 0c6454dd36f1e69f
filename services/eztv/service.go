package eztv

import (
	"context"
	"fmt"
	"net/http"

	"showdex/models"
)

// ListingSource names the page a show's episode table is extracted from.
// The detail page and the search page list the same rows under different
// markup shells, so both feed the same extraction.
type ListingSource string

const (
	SourceShowPage   ListingSource = "show"
	SourceSearchPage ListingSource = "search"
)

// Service is the public face of the tracker client: list the catalog, pull
// a show's episode table from its detail or search page, and page through
// the raw torrent API. Calls are single-flight request/response with no
// shared state beyond the configured base address, so callers may fan out
// across shows freely.
type Service struct {
	fetcher *Fetcher
}

// NewService creates a tracker client for the given base URL. A nil client
// gets a default one with a request timeout.
func NewService(baseURL string, client *http.Client) *Service {
	return &Service{fetcher: NewFetcher(baseURL, client)}
}

// Fetcher exposes the underlying fetcher for tuning retries and headers.
func (s *Service) Fetcher() *Fetcher { return s.fetcher }

// ListShows retrieves the full show catalog.
func (s *Service) ListShows(ctx context.Context) ([]models.ShowStub, error) {
	doc, err := s.fetcher.Page(ctx, "showlist/", nil)
	if err != nil {
		return nil, err
	}
	return ExtractShows(doc)
}

// EpisodeListing fetches the requested page for stub and extracts it
// without merging, for callers accumulating several listings into one
// show.
func (s *Service) EpisodeListing(ctx context.Context, stub models.ShowStub, source ListingSource) (Listing, error) {
	var path string
	switch source {
	case SourceSearchPage:
		path = "search/" + stub.Slug
	default:
		path = fmt.Sprintf("shows/%d/%s/", stub.ID, stub.Slug)
	}
	doc, err := s.fetcher.Page(ctx, path, nil)
	if err != nil {
		return Listing{}, err
	}
	return ExtractEpisodes(doc)
}

// ShowEpisodes builds a show's episode table from its detail page.
func (s *Service) ShowEpisodes(ctx context.Context, stub models.ShowStub) (models.Show, error) {
	return s.extract(ctx, stub, SourceShowPage)
}

// SearchShowEpisodes builds a show's episode table from the search page.
func (s *Service) SearchShowEpisodes(ctx context.Context, stub models.ShowStub) (models.Show, error) {
	return s.extract(ctx, stub, SourceSearchPage)
}

func (s *Service) extract(ctx context.Context, stub models.ShowStub, source ListingSource) (models.Show, error) {
	listing, err := s.EpisodeListing(ctx, stub, source)
	if err != nil {
		return models.Show{}, err
	}
	show := models.Show{ShowStub: stub, Episodes: models.EpisodeTable{}}
	listing.ApplyTo(&show)
	return show, nil
}

// TorrentPage fetches one page of the raw torrent API. The response passes
// through as-is; no HTML pipeline is involved.
func (s *Service) TorrentPage(ctx context.Context, q TorrentQuery) (models.TorrentPage, error) {
	var page models.TorrentPage
	if err := s.fetcher.JSON(ctx, "api/get-torrents", q.Values(), &page); err != nil {
		return models.TorrentPage{}, err
	}
	return page, nil
}

// TestConnection probes the tracker with a minimal torrent API call.
func (s *Service) TestConnection(ctx context.Context) error {
	_, err := s.TorrentPage(ctx, TorrentQuery{Limit: 1})
	return err
}
