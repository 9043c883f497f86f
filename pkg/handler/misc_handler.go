// Handler for miscellaneous endpoints such as health check

package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type HealthResponse struct {
	Health    string    `json:"health"`
	Store     string    `json:"store"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthCheck reports "degraded" when the scan store cannot be reached.
func (dbctx *DBContext) HealthCheck(w http.ResponseWriter, r *http.Request) {

	response := HealthResponse{
		Health:    "ok",
		Store:     "disabled",
		Timestamp: time.Now(),
	}
	status := http.StatusOK

	if dbctx.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbctx.Store.Ping(ctx); err != nil {
			requestLogger(r).Warn("Scan store unreachable", zap.Error(err))
			response.Health = "degraded"
			response.Store = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			response.Store = "ok"
		}
	}

	writeJSON(w, status, APIResponse{Success: status == http.StatusOK, Payload: response})
}
