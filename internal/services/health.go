package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nexfleet/devicehub/internal/config"
	"github.com/nexfleet/devicehub/internal/store"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Store        string            `json:"store"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck verifies that the document store is reachable.
func HealthCheck(cfg *config.Config, st store.Store) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := st.Ping(ctx); err != nil {
		result.Status = "unhealthy"
		result.Store = "unreachable"
		result.Details["store_ping_error"] = err.Error()
		result.ErrorMessage = fmt.Sprintf("Store ping failed: %v", err)
		log.Printf("Health check failed - store ping: %v", err)
		return result
	}

	result.Store = "ok"
	result.Details["store_type"] = cfg.StoreType
	if cfg.FirestoreProjectID != "" {
		result.Details["project_id"] = cfg.FirestoreProjectID
	}

	log.Println("Health check passed - all systems operational")
	return result
}
