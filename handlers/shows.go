package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"showdex/models"
	"showdex/services/catalog"
)

type catalogService interface {
	Shows(context.Context, string, int) ([]models.ShowStub, error)
	Episodes(context.Context, int, string, catalog.Source) (models.Show, error)
	Refresh(context.Context) (catalog.RefreshResult, error)
}

var _ catalogService = (*catalog.Service)(nil)

type ShowsHandler struct {
	Service catalogService
}

func NewShowsHandler(s catalogService) *ShowsHandler {
	return &ShowsHandler{Service: s}
}

// List returns the show catalog, optionally filtered by name similarity
// GET /api/shows?q=...&limit=...
func (h *ShowsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := 0
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	shows, err := h.Service.Shows(r.Context(), query, limit)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		statusCode, errResponse := classifyUpstreamError(err)
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(errResponse)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"shows": shows,
		"count": len(shows),
	})
}

// Episodes extracts a show's episode table live and merges it onto any
// stored listing
// GET /api/shows/{id}/{slug}/episodes?source=show|search or ?merge=1
func (h *ShowsHandler) Episodes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := strconv.Atoi(vars["id"])
	if err != nil || id <= 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": "Invalid show ID: " + vars["id"],
		})
		return
	}
	slug := vars["slug"]

	rawSource := r.URL.Query().Get("source")
	if r.URL.Query().Get("merge") == "1" {
		rawSource = string(catalog.SourceMerged)
	}
	source, err := catalog.ParseSource(rawSource)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	show, err := h.Service.Episodes(r.Context(), id, slug, source)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		statusCode, errResponse := classifyUpstreamError(err)
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(errResponse)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(show)
}

// Refresh re-fetches the full catalog from the tracker and stores it
// POST /api/shows/refresh
func (h *ShowsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.Refresh(r.Context())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		statusCode, errResponse := classifyUpstreamError(err)
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(errResponse)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"shows":   result.Shows,
		"warmed":  result.Warmed,
	})
}

func (h *ShowsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// classifyUpstreamError determines the appropriate HTTP status code and
// response for tracker errors, distinguishing timeouts (504) from other
// gateway errors (502)
func classifyUpstreamError(err error) (int, map[string]interface{}) {
	errMsg := err.Error()
	isTimeout := false

	// Check for net.Error timeout
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		isTimeout = true
	}

	// Also check error message for common timeout patterns
	// (catches wrapped errors where the net.Error is buried)
	if !isTimeout {
		isTimeout = strings.Contains(errMsg, "timeout") ||
			strings.Contains(errMsg, "context deadline exceeded")
	}

	if isTimeout {
		return http.StatusGatewayTimeout, map[string]interface{}{
			"error":   errMsg,
			"code":    "GATEWAY_TIMEOUT",
			"message": "Tracker request timed out. Consider raising the request timeout in Settings.",
		}
	}

	return http.StatusBadGateway, map[string]interface{}{
		"error":   errMsg,
		"code":    "BAD_GATEWAY",
		"message": "Tracker request failed due to an upstream error.",
	}
}
