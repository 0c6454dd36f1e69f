package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"showdex/models"
	"showdex/services/catalog"
)

type fakeCatalogService struct {
	stubs  []models.ShowStub
	show   models.Show
	result catalog.RefreshResult
	err    error

	lastQuery  string
	lastLimit  int
	lastID     int
	lastSlug   string
	lastSource catalog.Source
}

func (f *fakeCatalogService) Shows(_ context.Context, query string, limit int) ([]models.ShowStub, error) {
	f.lastQuery, f.lastLimit = query, limit
	if f.err != nil {
		return nil, f.err
	}
	return f.stubs, nil
}

func (f *fakeCatalogService) Episodes(_ context.Context, id int, slug string, source catalog.Source) (models.Show, error) {
	f.lastID, f.lastSlug, f.lastSource = id, slug, source
	if f.err != nil {
		return models.Show{}, f.err
	}
	return f.show, nil
}

func (f *fakeCatalogService) Refresh(_ context.Context) (catalog.RefreshResult, error) {
	if f.err != nil {
		return catalog.RefreshResult{}, f.err
	}
	return f.result, nil
}

func TestShowsHandler_List(t *testing.T) {
	fake := &fakeCatalogService{
		stubs: []models.ShowStub{{Name: "The Expanse", ID: 318, Slug: "the-expanse"}},
	}
	handler := NewShowsHandler(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/shows?q=expanse&limit=5", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	if fake.lastQuery != "expanse" || fake.lastLimit != 5 {
		t.Fatalf("unexpected query captured: %q limit %d", fake.lastQuery, fake.lastLimit)
	}

	var payload struct {
		Shows []models.ShowStub `json:"shows"`
		Count int               `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Count != 1 || len(payload.Shows) != 1 || payload.Shows[0].Slug != "the-expanse" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestShowsHandler_ListIgnoresBadLimit(t *testing.T) {
	fake := &fakeCatalogService{}
	handler := NewShowsHandler(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/shows?limit=invalid", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	if fake.lastLimit != 0 {
		t.Fatalf("expected unparseable limit to fall back to 0, got %d", fake.lastLimit)
	}
}

func TestShowsHandler_ListUpstreamError(t *testing.T) {
	fake := &fakeCatalogService{err: errors.New("tracker down")}
	handler := NewShowsHandler(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/shows", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected %d, got %d", http.StatusBadGateway, rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["error"] == "" {
		t.Fatalf("expected error message, got %v", payload)
	}
}

func TestShowsHandler_Episodes(t *testing.T) {
	show := models.Show{
		ShowStub: models.ShowStub{Name: "The Expanse", ID: 318, Slug: "the-expanse"},
		IMDB:     "tt3230854",
		Episodes: models.EpisodeTable{},
	}
	show.Episodes.Set("1", "2", "720p", models.TorrentRef{URL: "magnet:?xt=A", Provider: "EZTV"})
	fake := &fakeCatalogService{show: show}
	handler := NewShowsHandler(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/shows/318/the-expanse/episodes", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "318", "slug": "the-expanse"})
	rec := httptest.NewRecorder()

	handler.Episodes(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	if fake.lastID != 318 || fake.lastSlug != "the-expanse" {
		t.Fatalf("unexpected show captured: %d %q", fake.lastID, fake.lastSlug)
	}
	if fake.lastSource != catalog.SourceShow {
		t.Fatalf("expected default source, got %q", fake.lastSource)
	}

	var payload models.Show
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.IMDB != "tt3230854" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if _, ok := payload.Episodes.Get("1", "2", "720p"); !ok {
		t.Fatalf("episode table lost in transit: %+v", payload.Episodes)
	}
}

func TestShowsHandler_EpisodesSourceSelection(t *testing.T) {
	cases := []struct {
		rawQuery string
		want     catalog.Source
	}{
		{"", catalog.SourceShow},
		{"source=show", catalog.SourceShow},
		{"source=search", catalog.SourceSearch},
		{"merge=1", catalog.SourceMerged},
		{"source=search&merge=1", catalog.SourceMerged},
	}
	for _, tc := range cases {
		fake := &fakeCatalogService{show: models.Show{Episodes: models.EpisodeTable{}}}
		handler := NewShowsHandler(fake)

		req := httptest.NewRequest(http.MethodGet, "/api/shows/318/the-expanse/episodes?"+tc.rawQuery, nil)
		req = mux.SetURLVars(req, map[string]string{"id": "318", "slug": "the-expanse"})
		rec := httptest.NewRecorder()

		handler.Episodes(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%q: expected %d, got %d", tc.rawQuery, http.StatusOK, rec.Code)
		}
		if fake.lastSource != tc.want {
			t.Fatalf("%q: expected source %q, got %q", tc.rawQuery, tc.want, fake.lastSource)
		}
	}
}

func TestShowsHandler_EpisodesBadInput(t *testing.T) {
	fake := &fakeCatalogService{}
	handler := NewShowsHandler(fake)

	// Non-numeric show ID
	req := httptest.NewRequest(http.MethodGet, "/api/shows/abc/whatever/episodes", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "abc", "slug": "whatever"})
	rec := httptest.NewRecorder()
	handler.Episodes(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected %d for bad id, got %d", http.StatusBadRequest, rec.Code)
	}

	// Unknown source
	req = httptest.NewRequest(http.MethodGet, "/api/shows/318/the-expanse/episodes?source=upside-down", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "318", "slug": "the-expanse"})
	rec = httptest.NewRecorder()
	handler.Episodes(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected %d for bad source, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestShowsHandler_EpisodesTimeout(t *testing.T) {
	fake := &fakeCatalogService{err: context.DeadlineExceeded}
	handler := NewShowsHandler(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/shows/318/the-expanse/episodes", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "318", "slug": "the-expanse"})
	rec := httptest.NewRecorder()

	handler.Episodes(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected %d, got %d", http.StatusGatewayTimeout, rec.Code)
	}
}

func TestShowsHandler_Refresh(t *testing.T) {
	fake := &fakeCatalogService{result: catalog.RefreshResult{Shows: 2800, Warmed: 12}}
	handler := NewShowsHandler(fake)

	req := httptest.NewRequest(http.MethodPost, "/api/shows/refresh", nil)
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["success"] != true || payload["shows"] != float64(2800) {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
