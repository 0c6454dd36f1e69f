package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"showdex/models"
	"showdex/services/eztv"
)

type torrentService interface {
	TorrentPage(context.Context, eztv.TorrentQuery) (models.TorrentPage, error)
	TestConnection(context.Context) error
}

var _ torrentService = (*eztv.Service)(nil)

type TorrentsHandler struct {
	Service torrentService
}

func NewTorrentsHandler(s torrentService) *TorrentsHandler {
	return &TorrentsHandler{Service: s}
}

// Page passes one page of the tracker's torrent API through untouched
// GET /api/torrents?page=...&limit=...&imdbId=...
func (h *TorrentsHandler) Page(w http.ResponseWriter, r *http.Request) {
	q := eztv.TorrentQuery{
		IMDB: strings.TrimSpace(r.URL.Query().Get("imdbId")),
	}
	if rawPage := r.URL.Query().Get("page"); rawPage != "" {
		if parsed, err := strconv.Atoi(rawPage); err == nil && parsed > 0 {
			q.Page = parsed
		}
	}
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil && parsed > 0 {
			q.Limit = parsed
		}
	}

	page, err := h.Service.TorrentPage(r.Context(), q)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		statusCode, errResponse := classifyUpstreamError(err)
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(errResponse)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page)
}

// Health probes tracker reachability with a minimal API call
// GET /api/eztv/health
func (h *TorrentsHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := h.Service.TestConnection(r.Context()); err != nil {
		statusCode, _ := classifyUpstreamError(err)
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "down",
			"error":  err.Error(),
		})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
	})
}

func (h *TorrentsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
