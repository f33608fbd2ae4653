package handlers

import (
	"net/http"
	"time"

	"github.com/datalakehq/catalogd/pkg/catalog/store"
)

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Is the catalog database reachable?
type HealthHandler struct {
	store *store.GORMStore
}

// NewHealthHandler creates a new health handler.
//
// The store parameter may be nil, in which case readiness always reports
// unhealthy.
func NewHealthHandler(st *store.GORMStore) *HealthHandler {
	return &HealthHandler{store: st}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

func healthy() healthResponse {
	return healthResponse{Status: "healthy", Timestamp: time.Now().UTC()}
}

func unhealthy(errMsg string) healthResponse {
	return healthResponse{Status: "unhealthy", Timestamp: time.Now().UTC(), Error: errMsg}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK if the server process is running. Designed for Kubernetes
// liveness probes and should always succeed while the HTTP server responds.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, healthy())
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 200 OK when the catalog database answers a ping, 503 otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthy("store not initialized"))
		return
	}

	if err := h.store.Ping(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthy(err.Error()))
		return
	}

	WriteJSONOK(w, healthy())
}
