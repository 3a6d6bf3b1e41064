package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/upb/dak-console/services/sessioncache"
	"github.com/upb/dak-console/utils"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string              `json:"status"`
	Timestamp string              `json:"timestamp"`
	Checks    map[string]string   `json:"checks,omitempty"`
	Clients   *sessioncache.Stats `json:"clients,omitempty"`
}

// StatsSource reports client cache occupancy
type StatsSource interface {
	Stats() sessioncache.Stats
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     *sql.DB
	cache  StatsSource
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db is nil when sessions are kept in memory.
func NewHealthHandler(db *sql.DB, cache StatsSource, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, logger: logger}
}

// HandleHealth handles GET /healthz
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
// Session storage must be reachable.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"storage": "healthy"}
	status, httpStatus := "healthy", http.StatusOK
	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("session storage health check failed", zap.Error(err))
		checks["storage"] = "unhealthy"
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	}

	resp := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if h.cache != nil {
		stats := h.cache.Stats()
		resp.Clients = &stats
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: resp}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	if err := h.db.PingContext(ctx); err != nil {
		return err
	}
	var one int
	return h.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}
