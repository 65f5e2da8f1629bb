package api

import (
	"net/http"
	"time"

	"github.com/snarg/scribe-engine/internal/database"
	"github.com/snarg/scribe-engine/internal/storage"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

type HealthHandler struct {
	db        *database.DB
	store     storage.ObjectStore
	version   string
	startTime time.Time
}

func NewHealthHandler(db *database.DB, store storage.ObjectStore, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		db:        db,
		store:     store,
		version:   version,
		startTime: startTime,
	}
}

// ServeHTTP reports service health. A failing database makes the service
// unhealthy; a failing object store only degrades it, since existing jobs
// can still be polled and exported.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.HealthCheck(r.Context()); err != nil {
		checks["database"] = "error"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.store != nil {
		if err := h.store.HealthCheck(r.Context()); err != nil {
			checks["storage"] = "error"
			if status == "healthy" {
				status = "degraded"
			}
		} else {
			checks["storage"] = "ok"
		}
	} else {
		checks["storage"] = "not_configured"
	}

	WriteJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	})
}
