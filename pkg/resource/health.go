// pkg/resource/health.go
package resource

import (
	"context"
	"fmt"
)

// HealthCheck reports unhealthy once tracked goroutines pass 80% of the limit.
type HealthCheck struct {
	manager *Manager
}

// NewHealthCheck creates a health check over manager
func NewHealthCheck(manager *Manager) *HealthCheck {
	return &HealthCheck{manager: manager}
}

// Name returns the name of this health check.
func (r *HealthCheck) Name() string {
	return "goroutines"
}

// Check verifies that session goroutines have headroom left
func (r *HealthCheck) Check(ctx context.Context) error {
	stats := r.manager.Stats()

	threshold := stats.MaxGoroutines * 8 / 10
	if stats.Goroutines > threshold {
		return fmt.Errorf("goroutine count %d exceeds 80%% threshold (%d/%d)",
			stats.Goroutines, threshold, stats.MaxGoroutines)
	}
	return nil
}
