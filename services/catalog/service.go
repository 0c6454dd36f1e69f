package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"showdex/internal/database"
	"showdex/models"
	"showdex/services/eztv"
	"showdex/utils/similarity"
)

// tracker is the slice of the EZTV client this service consumes.
type tracker interface {
	ListShows(ctx context.Context) ([]models.ShowStub, error)
	EpisodeListing(ctx context.Context, stub models.ShowStub, source eztv.ListingSource) (eztv.Listing, error)
}

var _ tracker = (*eztv.Service)(nil)

// Source selects which tracker page an episode lookup extracts from.
type Source string

const (
	SourceShow   Source = "show"
	SourceSearch Source = "search"
	SourceMerged Source = "merge"
)

// ParseSource validates a source query parameter. Empty means the detail
// page.
func ParseSource(raw string) (Source, error) {
	switch Source(raw) {
	case "", SourceShow:
		return SourceShow, nil
	case SourceSearch:
		return SourceSearch, nil
	case SourceMerged:
		return SourceMerged, nil
	}
	return "", fmt.Errorf("unknown source %q", raw)
}

// Options tunes catalog maintenance.
type Options struct {
	WarmShowLimit   int     // shows to prefetch episode tables for after a refresh; 0 disables
	WarmConcurrency int     // parallel fetches during warm-up
	SearchThreshold float64 // minimum similarity score for search matches
	SnapshotPath    string  // JSON export target; empty disables
}

// Service keeps the persistent show catalog in sync with the tracker and
// answers store-backed queries. Lookups extract live and merge onto
// whatever is already stored, so episode tables only ever grow.
type Service struct {
	tracker tracker
	repo    *database.ShowRepository
	fs      afero.Fs
	opts    Options
}

func NewService(t tracker, repo *database.ShowRepository, opts Options) *Service {
	if opts.WarmConcurrency <= 0 {
		opts.WarmConcurrency = 4
	}
	if opts.SearchThreshold <= 0 {
		opts.SearchThreshold = 0.55
	}
	return &Service{
		tracker: t,
		repo:    repo,
		fs:      afero.NewOsFs(),
		opts:    opts,
	}
}

// SetFs replaces the snapshot filesystem. Tests use an in-memory one.
func (s *Service) SetFs(fs afero.Fs) {
	s.fs = fs
}

// RefreshResult summarizes one catalog refresh.
type RefreshResult struct {
	Shows  int `json:"shows"`
	Warmed int `json:"warmed"`
}

// Refresh pulls the live catalog, stores it, optionally warms episode
// tables for the first few shows, and exports the snapshot. A failed warm
// or export never fails the refresh; the catalog itself is what matters.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	stubs, err := s.tracker.ListShows(ctx)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("list shows: %w", err)
	}
	if err := s.repo.UpsertShows(ctx, stubs); err != nil {
		return RefreshResult{}, fmt.Errorf("store shows: %w", err)
	}
	result := RefreshResult{Shows: len(stubs)}
	log.Printf("[catalog] refreshed %d shows", result.Shows)

	if s.opts.WarmShowLimit > 0 {
		result.Warmed = s.warmEpisodes(ctx, stubs)
	}

	if s.opts.SnapshotPath != "" {
		if err := s.ExportSnapshot(ctx, s.opts.SnapshotPath); err != nil {
			log.Printf("[catalog] snapshot export failed: %v", err)
		}
	}
	return result, nil
}

// warmEpisodes prefetches episode tables for the first WarmShowLimit shows
// through a bounded pool. Each fetch stays an independent single-flight
// call; failures are logged and skipped.
func (s *Service) warmEpisodes(ctx context.Context, stubs []models.ShowStub) int {
	limit := s.opts.WarmShowLimit
	if limit > len(stubs) {
		limit = len(stubs)
	}

	var warmed atomic.Int32
	p := pool.New().WithMaxGoroutines(s.opts.WarmConcurrency).WithContext(ctx)
	for _, stub := range stubs[:limit] {
		p.Go(func(ctx context.Context) error {
			if _, err := s.Episodes(ctx, stub.ID, stub.Slug, SourceShow); err != nil {
				log.Printf("[catalog] warm %s: %v", stub.Slug, err)
				return nil
			}
			warmed.Add(1)
			return nil
		})
	}
	_ = p.Wait()
	return int(warmed.Load())
}

// Shows lists the stored catalog. With a query it ranks every show name by
// similarity and returns matches above the configured threshold, best
// first; without one it returns the catalog in name order. An empty store
// falls back to a live catalog fetch and seeds the store with the result.
func (s *Service) Shows(ctx context.Context, query string, limit int) ([]models.ShowStub, error) {
	query = strings.TrimSpace(query)

	count, err := s.repo.CountShows(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		stubs, err := s.tracker.ListShows(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpsertShows(ctx, stubs); err != nil {
			log.Printf("[catalog] seed store from live catalog: %v", err)
		}
		sort.SliceStable(stubs, func(i, j int) bool {
			return strings.ToLower(stubs[i].Name) < strings.ToLower(stubs[j].Name)
		})
		return s.filter(stubs, query, limit), nil
	}

	if query == "" {
		return s.repo.ListShows(ctx, limit)
	}
	all, err := s.repo.ListShows(ctx, 0)
	if err != nil {
		return nil, err
	}
	return s.filter(all, query, limit), nil
}

// filter applies query ranking and the limit to an already name-ordered list.
func (s *Service) filter(stubs []models.ShowStub, query string, limit int) []models.ShowStub {
	if query != "" {
		type scored struct {
			stub  models.ShowStub
			score float64
		}
		matches := []scored{}
		for _, stub := range stubs {
			if score := similarity.Score(query, stub.Name); score >= s.opts.SearchThreshold {
				matches = append(matches, scored{stub: stub, score: score})
			}
		}
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].score > matches[j].score
		})
		stubs = make([]models.ShowStub, 0, len(matches))
		for _, m := range matches {
			stubs = append(stubs, m.stub)
		}
	}
	if limit > 0 && len(stubs) > limit {
		stubs = stubs[:limit]
	}
	return stubs
}

// Episodes returns a show's episode table, extracting live from the
// requested source and merging the result onto anything already stored.
// The merged table is persisted before returning; a persist failure is
// logged rather than surfaced since the caller already has the data.
func (s *Service) Episodes(ctx context.Context, id int, slug string, source Source) (models.Show, error) {
	show, err := s.repo.GetEpisodes(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, database.ErrNotFound):
		show = models.Show{
			ShowStub: models.ShowStub{ID: id, Slug: slug},
			Episodes: models.EpisodeTable{},
		}
	default:
		return models.Show{}, err
	}
	if show.Slug == "" {
		show.Slug = slug
	}

	sources := []eztv.ListingSource{eztv.SourceShowPage}
	switch source {
	case SourceSearch:
		sources = []eztv.ListingSource{eztv.SourceSearchPage}
	case SourceMerged:
		sources = []eztv.ListingSource{eztv.SourceShowPage, eztv.SourceSearchPage}
	}

	for _, src := range sources {
		listing, err := s.tracker.EpisodeListing(ctx, show.ShowStub, src)
		if err != nil {
			return models.Show{}, err
		}
		listing.ApplyTo(&show)
	}

	if err := s.repo.SaveEpisodes(ctx, show); err != nil {
		log.Printf("[catalog] persist episodes for show %d: %v", id, err)
	}
	return show, nil
}

// Snapshot is the exported catalog document.
type Snapshot struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Shows       []models.ShowStub `json:"shows"`
}

// ExportSnapshot writes the stored catalog as an indented JSON document.
func (s *Service) ExportSnapshot(ctx context.Context, path string) error {
	stubs, err := s.repo.ListShows(ctx, 0)
	if err != nil {
		return fmt.Errorf("list shows: %w", err)
	}

	data, err := json.MarshalIndent(Snapshot{
		GeneratedAt: time.Now().UTC(),
		Shows:       stubs,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ClearEpisodes drops all stored episode listings. The catalog stubs stay;
// the next lookup extracts fresh.
func (s *Service) ClearEpisodes(ctx context.Context) (int64, error) {
	cleared, err := s.repo.ClearEpisodes(ctx)
	if err != nil {
		return 0, err
	}
	log.Printf("[catalog] cleared %d stored episode listings", cleared)
	return cleared, nil
}
