package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"showdex/config"
	"showdex/services/catalog"
)

type episodeCacheClearer interface {
	ClearEpisodes(context.Context) (int64, error)
}

var _ episodeCacheClearer = (*catalog.Service)(nil)

type SettingsHandler struct {
	Manager        *config.Manager
	CatalogService episodeCacheClearer
}

func NewSettingsHandler(m *config.Manager) *SettingsHandler {
	return &SettingsHandler{Manager: m}
}

// SetCatalogService sets the catalog service for cache clearing
func (h *SettingsHandler) SetCatalogService(c episodeCacheClearer) {
	h.CatalogService = c
}

func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Manager.Load()
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}

func (h *SettingsHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.Manager.Load()
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	var s config.Settings
	dec := json.NewDecoder(r.Body)
	// Allow unknown fields for backward compatibility with old configs
	if err := dec.Decode(&s); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	// A client that omits the PIN must not clear it
	if s.Server.PIN == "" {
		s.Server.PIN = current.Server.PIN
	}

	if err := h.Manager.Save(s); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	// The tracker client and catalog options are wired at startup
	if s.EZTV != current.EZTV || s.Catalog != current.Catalog {
		log.Printf("[settings] tracker/catalog settings changed, restart to apply")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(s)
}

// ClearEpisodeCache drops all stored episode listings
func (h *SettingsHandler) ClearEpisodeCache(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.CatalogService == nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "catalog service not available"})
		return
	}
	cleared, err := h.CatalogService.ClearEpisodes(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	log.Printf("[settings] episode cache cleared by user request (%d listings)", cleared)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"message": "Episode cache cleared",
		"cleared": cleared,
	})
}
