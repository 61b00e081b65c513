package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"ASTROTRACKER_BACK-END/internal/dto"
	"ASTROTRACKER_BACK-END/internal/utils"
)

// Pinger is a dependency whose reachability is reported by /health
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check related requests
type HealthHandler struct {
	db     Pinger
	cache  Pinger
	logger *slog.Logger
	now    func() time.Time
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(db, cache Pinger, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{db: db, cache: cache, logger: logger, now: time.Now}
}

// HealthCheck reports database and cache connectivity
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	details := map[string]any{}
	healthy := true
	for name, dep := range map[string]Pinger{"db": h.db, "cache": h.cache} {
		if dep == nil {
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			h.logger.ErrorContext(ctx, "health check failed", "dependency", name, "error", err)
			details[name] = "unavailable"
			healthy = false
			continue
		}
		details[name] = "ok"
	}

	if !healthy {
		utils.WriteJSONResponse(w, http.StatusServiceUnavailable, dto.HealthResponse{Status: "degraded", Details: details})
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.HealthResponse{Status: "ok", Details: details})
}

// LivenessCheck handles process liveness check
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, dto.HealthResponse{Status: "alive"})
}

// TestHealth is an unauthenticated smoke test
// @Summary Test health
// @Tags test
// @Produce json
// @Success 200 {object} dto.TestHealthResponse
// @Router /api/test/health [get]
func (h *HealthHandler) TestHealth(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, dto.TestHealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// Ping answers "pong"
// @Summary Ping
// @Tags test
// @Produce json
// @Success 200 {string} string "pong"
// @Router /api/test/ping [get]
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, "pong")
}
