package core

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is the part of a CredentialStore the health endpoint needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the operational HTTP surface: store health and metrics.
type Server struct {
	store    Pinger
	method   AuthMethod
	gatherer prometheus.Gatherer
}

// NewServer creates the operational server. store may be nil when the active
// AuthProvider does not use the credential store.
func NewServer(store Pinger, method AuthMethod, gatherer prometheus.Gatherer) *Server {
	return &Server{
		store:    store,
		method:   method,
		gatherer: gatherer,
	}
}

// Routes registers the handlers on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.HandleHealth)
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !validateMethod(w, r, http.MethodGet) {
		return
	}

	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, string(KindStoreUnavailable), "Credential store is unreachable")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"auth_method": string(s.method),
	})
}

// Helper functions

func validateMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	respondJSON(w, statusCode, map[string]string{
		"error":   errorCode,
		"message": message,
	})
}
