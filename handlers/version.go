package handlers

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// Version is stamped by the build; "dev" for local builds.
var Version = "dev"

type VersionHandler struct{}

func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

func (h *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"name":    "showdex",
		"version": Version,
		"go":      runtime.Version(),
	})
}
