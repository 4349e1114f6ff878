// pkg/render/terminal.go
package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/opd-ai/go-arena/pkg/network"
	"github.com/opd-ai/go-arena/pkg/physics"
)

// Symbols drawn by TerminalRenderer
const (
	SymbolSelf       = '@'
	SymbolPlayer     = 'P'
	SymbolProjectile = '*'
	SymbolRooted     = 'o'
)

// TerminalRenderer provides a simple ASCII view of the arena, centred on
// the viewer's player when it is present.
type TerminalRenderer struct {
	out       io.Writer
	width     int
	height    int
	buffer    [][]rune
	scale     float64 // world pixels per character
	centerPos physics.Vector2D
	clear     bool
}

// NewTerminalRenderer creates a width x height character view writing to out
func NewTerminalRenderer(out io.Writer, width, height int, scale float64) *TerminalRenderer {
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
	}
	if scale <= 0 {
		scale = 1
	}
	return &TerminalRenderer{
		out:    out,
		width:  width,
		height: height,
		buffer: buffer,
		scale:  scale,
	}
}

// ClearScreen makes every Draw start by clearing an ANSI terminal
func (r *TerminalRenderer) ClearScreen(clear bool) {
	r.clear = clear
}

// SetCenter sets the center position of the view
func (r *TerminalRenderer) SetCenter(pos physics.Vector2D) {
	r.centerPos = pos
}

func (r *TerminalRenderer) worldToScreen(pos physics.Vector2D) (int, int, bool) {
	x := int(math.Floor((pos.X-r.centerPos.X)/r.scale + float64(r.width)/2))
	y := int(math.Floor((pos.Y-r.centerPos.Y)/r.scale + float64(r.height)/2))
	return x, y, x >= 0 && x < r.width && y >= 0 && y < r.height
}

func (r *TerminalRenderer) reset() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = ' '
		}
	}
}

func (r *TerminalRenderer) plot(pos physics.Vector2D, symbol rune) {
	if x, y, ok := r.worldToScreen(pos); ok {
		r.buffer[y][x] = symbol
	}
}

// Draw implements Renderer. Projectiles are drawn first so players stay visible.
func (r *TerminalRenderer) Draw(state network.TickState, selfID string) error {
	r.reset()

	var self *network.PlayerState
	for i := range state.Players {
		if state.Players[i].ID == selfID {
			self = &state.Players[i]
			r.SetCenter(physics.Vec(self.X, self.Y))
		}
	}

	for _, p := range state.Projectiles {
		symbol := SymbolProjectile
		if p.Rooted {
			symbol = SymbolRooted
		}
		r.plot(physics.Vec(p.X, p.Y), symbol)
	}
	for _, p := range state.Players {
		if p.ID != selfID {
			r.plot(physics.Vec(p.X, p.Y), SymbolPlayer)
		}
	}
	if self != nil {
		r.plot(physics.Vec(self.X, self.Y), SymbolSelf)
	}

	return r.present(state, self)
}

func (r *TerminalRenderer) present(state network.TickState, self *network.PlayerState) error {
	w := bufio.NewWriter(r.out)
	if r.clear {
		w.WriteString("\033[H\033[2J")
	}

	border := "+" + strings.Repeat("-", r.width) + "+\n"
	w.WriteString(border)
	for y := range r.buffer {
		w.WriteByte('|')
		w.WriteString(string(r.buffer[y]))
		w.WriteString("|\n")
	}
	w.WriteString(border)

	fmt.Fprintf(w, "tick %d  players %d  projectiles %d", state.Tick, len(state.Players), len(state.Projectiles))
	if self != nil {
		fmt.Fprintf(w, "  hp %.0f/%.0f", self.HP, self.MaxHP)
		if len(self.Objectives) > 0 {
			fmt.Fprintf(w, "  objectives %s", strings.Join(self.Objectives, ","))
		}
	}
	w.WriteByte('\n')
	return w.Flush()
}
