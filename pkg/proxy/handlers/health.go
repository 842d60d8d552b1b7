package handlers

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Status is a point-in-time view of the gateway's rule state.
type Status struct {
	Generation uint64
	Rules      int
	AllowHosts int
	ShutDown   bool
}

// StatusSource reports the current gateway status.
type StatusSource interface {
	Status() Status
}

// HealthHandler serves liveness checks with the active rule generation.
type HealthHandler struct {
	source StatusSource
	now    func() time.Time
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(source StatusSource) *HealthHandler {
	return &HealthHandler{source: source, now: time.Now}
}

// ServeHTTP implements http.Handler for liveness checks.
// A gateway that is shutting down reports 503.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st := h.source.Status()

	status := "ok"
	statusCode := http.StatusOK
	if st.ShutDown {
		status = "shutting_down"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]any{
		"status":      status,
		"generation":  st.Generation,
		"rules":       st.Rules,
		"allow_hosts": st.AllowHosts,
		"timestamp":   h.now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}
