// pkg/render/renderer.go
package render

import (
	"context"

	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/network"
)

// Renderer draws broadcast arena state. selfID marks the viewer's player.
type Renderer interface {
	Draw(state network.TickState, selfID string) error
}

// NullRenderer draws nothing and logs a summary of each frame at debug level.
type NullRenderer struct {
	logger *logging.Logger
}

// NewNullRenderer creates a NullRenderer. A nil logger discards.
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &NullRenderer{logger: logger}
}

// Draw implements Renderer.
func (d *NullRenderer) Draw(state network.TickState, selfID string) error {
	d.logger.Debug(context.Background(), "Frame",
		"tick", state.Tick,
		"players", len(state.Players),
		"projectiles", len(state.Projectiles),
		"removed", len(state.Removed),
		"self", selfID,
	)
	return nil
}
