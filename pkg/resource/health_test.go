// pkg/resource/health_test.go
package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheck_Name(t *testing.T) {
	check := NewHealthCheck(NewManager(testConfig(100), nil))
	assert.Equal(t, "goroutines", check.Name())
}

func TestHealthCheck_Check(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		running int
		wantErr bool
	}{
		{name: "idle", limit: 10, running: 0},
		{name: "at_threshold", limit: 10, running: 8},
		{name: "over_threshold", limit: 10, running: 9, wantErr: true},
		{name: "full", limit: 5, running: 5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := NewManager(testConfig(tt.limit), nil)
			release := make(chan struct{})
			defer close(release)

			for i := 0; i < tt.running; i++ {
				if err := rm.Go(context.Background(), "hold", func(ctx context.Context) { <-release }); err != nil {
					t.Fatalf("Go %d: %v", i, err)
				}
			}

			err := NewHealthCheck(rm).Check(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
