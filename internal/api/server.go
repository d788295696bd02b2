package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/typetrace/typetrace/internal/ratelimit"
)

// SetupRoutes configures all HTTP routes for the collector.
func SetupRoutes(stats *StatsHandler, contexts *ContextHandler, limiter *ratelimit.Limiter, ratePerMinute int) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/v1").Subrouter()

	// Context ingest is rate limited per client. A stuck extension retry
	// loop must not be able to flood the collector.
	limited := api.PathPrefix("").Subrouter()
	limited.Use(RateLimitMiddleware(limiter, ratePerMinute))
	limited.HandleFunc("/context", contexts.UpdateContext).Methods("POST", "OPTIONS")

	api.HandleFunc("/context", contexts.GetContext).Methods("GET")
	api.HandleFunc("/stats", stats.GetStats).Methods("GET")
	api.HandleFunc("/apps", stats.GetApps).Methods("GET")
	api.HandleFunc("/hourly", stats.GetHourly).Methods("GET")
	api.HandleFunc("/peaks", stats.GetPeaks).Methods("GET")
	api.HandleFunc("/daily", stats.GetDaily).Methods("GET")
	api.HandleFunc("/live", stats.GetLive).Methods("GET")

	r.HandleFunc("/healthz", stats.Health).Methods("GET")

	r.Use(RequestIDMiddleware)
	r.Use(corsMiddleware)

	return r
}

// corsMiddleware adds CORS headers so the browser extension can POST from an
// extension origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
