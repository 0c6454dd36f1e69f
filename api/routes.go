package api

import (
	"net/http"
	"net/http/pprof"
	"runtime"
	"strconv"

	"showdex/handlers"

	"github.com/gorilla/mux"
)

func itoa(i int) string      { return strconv.Itoa(i) }
func itoa64(i uint64) string { return strconv.FormatUint(i, 10) }

// localhostOnlyMiddleware restricts access to localhost requests only
func localhostOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		// Strip port if present
		for i := len(host) - 1; i >= 0; i-- {
			if host[i] == ':' {
				host = host[:i]
				break
			}
		}
		// Allow localhost, 127.0.0.1, ::1
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			http.Error(w, "Debug endpoints only accessible from localhost", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// pinAuthMiddleware guards mutating routes with the dashboard PIN. An empty
// configured PIN disables the check. The PIN is read per request so a
// settings change takes effect without a restart.
func pinAuthMiddleware(getPIN func() string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pin := getPIN()
			if pin != "" {
				supplied := r.Header.Get("X-Showdex-PIN")
				if supplied == "" {
					supplied = r.URL.Query().Get("pin")
				}
				if supplied != pin {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					w.Write([]byte(`{"error":"Invalid or missing PIN"}`))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	showsHandler *handlers.ShowsHandler,
	torrentsHandler *handlers.TorrentsHandler,
	settingsHandler *handlers.SettingsHandler,
	tasksHandler *handlers.ScheduledTasksHandler,
	getPIN func() string,
) {
	api := r.PathPrefix("/api").Subrouter()

	// Add CORS middleware to API subrouter
	api.Use(corsMiddleware)

	// Catalog routes (public, read-only)
	api.HandleFunc("/shows", showsHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/shows", showsHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/shows/{id}/{slug}/episodes", showsHandler.Episodes).Methods(http.MethodGet)
	api.HandleFunc("/shows/{id}/{slug}/episodes", showsHandler.Options).Methods(http.MethodOptions)

	// Torrent API pass-through (public, read-only)
	api.HandleFunc("/torrents", torrentsHandler.Page).Methods(http.MethodGet)
	api.HandleFunc("/torrents", torrentsHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/eztv/health", torrentsHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/eztv/health", torrentsHandler.Options).Methods(http.MethodOptions)

	// Version endpoint (public)
	versionHandler := handlers.NewVersionHandler()
	api.HandleFunc("/version", versionHandler.GetVersion).Methods(http.MethodGet, http.MethodOptions)

	// Protected routes - mutations and settings require the PIN
	protected := api.PathPrefix("").Subrouter()
	protected.Use(pinAuthMiddleware(getPIN))

	protected.HandleFunc("/shows/refresh", showsHandler.Refresh).Methods(http.MethodPost)
	protected.HandleFunc("/shows/refresh", showsHandler.Options).Methods(http.MethodOptions)

	protected.HandleFunc("/settings", settingsHandler.GetSettings).Methods(http.MethodGet)
	protected.HandleFunc("/settings", settingsHandler.PutSettings).Methods(http.MethodPut)
	protected.HandleFunc("/settings", handleOptions).Methods(http.MethodOptions)
	protected.HandleFunc("/settings/cache/clear", settingsHandler.ClearEpisodeCache).Methods(http.MethodPost)
	protected.HandleFunc("/settings/cache/clear", handleOptions).Methods(http.MethodOptions)

	protected.HandleFunc("/scheduled-tasks", tasksHandler.ListTasks).Methods(http.MethodGet)
	protected.HandleFunc("/scheduled-tasks", tasksHandler.CreateTask).Methods(http.MethodPost)
	protected.HandleFunc("/scheduled-tasks", handleOptions).Methods(http.MethodOptions)
	protected.HandleFunc("/scheduled-tasks/{taskID}", tasksHandler.UpdateTask).Methods(http.MethodPut)
	protected.HandleFunc("/scheduled-tasks/{taskID}", tasksHandler.DeleteTask).Methods(http.MethodDelete)
	protected.HandleFunc("/scheduled-tasks/{taskID}", handleOptions).Methods(http.MethodOptions)
	protected.HandleFunc("/scheduled-tasks/{taskID}/run", tasksHandler.RunTaskNow).Methods(http.MethodPost)
	protected.HandleFunc("/scheduled-tasks/{taskID}/run", handleOptions).Methods(http.MethodOptions)
	protected.HandleFunc("/scheduled-tasks/{taskID}/toggle", tasksHandler.ToggleTask).Methods(http.MethodPost)
	protected.HandleFunc("/scheduled-tasks/{taskID}/toggle", handleOptions).Methods(http.MethodOptions)

	// Pprof debug endpoints for profiling (localhost only, no auth required for debugging)
	// These are essential for diagnosing production issues and are safe since they're read-only
	pprofRouter := api.PathPrefix("/debug/pprof").Subrouter()
	pprofRouter.Use(localhostOnlyMiddleware)
	pprofRouter.HandleFunc("/", pprof.Index)
	pprofRouter.HandleFunc("/cmdline", pprof.Cmdline)
	pprofRouter.HandleFunc("/profile", pprof.Profile)
	pprofRouter.HandleFunc("/symbol", pprof.Symbol)
	pprofRouter.HandleFunc("/trace", pprof.Trace)
	pprofRouter.HandleFunc("/allocs", pprof.Handler("allocs").ServeHTTP)
	pprofRouter.HandleFunc("/block", pprof.Handler("block").ServeHTTP)
	pprofRouter.HandleFunc("/goroutine", pprof.Handler("goroutine").ServeHTTP)
	pprofRouter.HandleFunc("/heap", pprof.Handler("heap").ServeHTTP)
	pprofRouter.HandleFunc("/mutex", pprof.Handler("mutex").ServeHTTP)
	pprofRouter.HandleFunc("/threadcreate", pprof.Handler("threadcreate").ServeHTTP)

	// Runtime stats endpoint (localhost only, no auth required for debugging)
	runtimeRouter := api.PathPrefix("/debug/runtime").Subrouter()
	runtimeRouter.Use(localhostOnlyMiddleware)
	runtimeRouter.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{` +
			`"goroutines":` + itoa(runtime.NumGoroutine()) + `,` +
			`"heapAlloc":` + itoa64(m.HeapAlloc) + `,` +
			`"heapSys":` + itoa64(m.HeapSys) + `,` +
			`"heapInuse":` + itoa64(m.HeapInuse) + `,` +
			`"heapObjects":` + itoa64(m.HeapObjects) + `,` +
			`"stackInuse":` + itoa64(m.StackInuse) + `,` +
			`"stackSys":` + itoa64(m.StackSys) + `,` +
			`"numGC":` + itoa(int(m.NumGC)) + `,` +
			`"lastGC":` + itoa64(m.LastGC) + `,` +
			`"pauseTotalNs":` + itoa64(m.PauseTotalNs) + `,` +
			`"numCPU":` + itoa(runtime.NumCPU()) +
			`}`))
	}).Methods(http.MethodGet)
}
