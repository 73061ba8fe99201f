package api

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"
)

const version = "1.0.0"

// HealthHandler responds to health check requests. A failed database ping
// reports "degraded" with status 503.
func HealthHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if sqlDB, err := database.DB(); err != nil || sqlDB.PingContext(r.Context()) != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status":  status,
			"version": version,
		})
	}
}
