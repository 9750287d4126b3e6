// Package health exposes a liveness endpoint aggregating the health of
// all registered components.
package health

import (
	"encoding/json"
	"net/http"

	"github.com/Koyo-os/survey-service/pkg/logger"
	"go.uber.org/zap"
)

type (
	// Healther is implemented by any component that can report its
	// health. Checks should be quick so they do not block the
	// endpoint.
	Healther interface {
		IsHealthy() bool
	}

	// HealthChecker aggregates named components and reports overall
	// health plus which components are failing.
	HealthChecker struct {
		logger     *logger.Logger
		components map[string]Healther
	}

	healthReport struct {
		Status  string   `json:"status"`
		Failing []string `json:"failing,omitempty"`
	}
)

// NewHealthChecker creates a checker over the given named components.
func NewHealthChecker(logger *logger.Logger, components map[string]Healther) *HealthChecker {
	return &HealthChecker{
		logger:     logger,
		components: components,
	}
}

// HealthCheck reports 200 with {"status":"ok"} when every component is
// healthy, otherwise 500 listing the failing component names.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := healthReport{Status: "ok"}

	for name, component := range h.components {
		if !component.IsHealthy() {
			report.Failing = append(report.Failing, name)
			h.logger.Error("health check failed", zap.String("component", name))
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if len(report.Failing) > 0 {
		report.Status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	_ = json.NewEncoder(w).Encode(report)
}

// StartHealthCheckServer serves the /health endpoint on the given
// port. It blocks, so run it in its own goroutine.
func (h *HealthChecker) StartHealthCheckServer(port string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.HealthCheck)

	h.logger.Info("starting health check server", zap.String("port", port))

	if err := http.ListenAndServe(port, mux); err != nil {
		h.logger.Error("failed to start health check server", zap.Error(err))
	}
}
