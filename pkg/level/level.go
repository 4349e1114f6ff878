// Package level loads arena maps: a character grid of tiles plus trigger
// regions and spawn points, stored as YAML or JSON.
package level

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-arena/pkg/entity"
	"github.com/opd-ai/go-arena/pkg/physics"
)

var (
	// ErrEmptyGrid is returned for a level without any rows.
	ErrEmptyGrid = errors.New("level grid is empty")
	// ErrUnknownSymbol is returned when a grid cell has no legend entry.
	ErrUnknownSymbol = errors.New("grid symbol missing from legend")
	// ErrTooLarge is returned when a level does not fit the engine map.
	ErrTooLarge = errors.New("level larger than map")
)

// Blank cells hold no tile.
const Blank = ' '

// Neighbour bits of Tile.Around
const (
	North = 1 << iota
	East
	South
	West
)

// TileDef describes what a grid symbol turns into
type TileDef struct {
	Name             string `json:"name" yaml:"name"`
	entity.Traversal `yaml:",inline"`
}

// RegionDef describes a trigger region in world pixels
type RegionDef struct {
	Name      string           `json:"name" yaml:"name"`
	Color     string           `json:"color,omitempty" yaml:"color,omitempty"`
	Objective bool             `json:"objective,omitempty" yaml:"objective,omitempty"`
	Center    physics.Vector2D `json:"center" yaml:"center"`
	Size      physics.Vector2D `json:"size" yaml:"size"`
}

// Level is a decoded level file
type Level struct {
	Name     string             `json:"name" yaml:"name"`
	TileSize float64            `json:"tileSize" yaml:"tileSize"`
	TopLeft  physics.Vector2D   `json:"topLeft" yaml:"topLeft"` // offset in cells
	Legend   map[string]TileDef `json:"legend" yaml:"legend"`
	Grid     []string           `json:"grid" yaml:"grid"`
	Regions  []RegionDef        `json:"regions" yaml:"regions"`
	Spawns   []physics.Vector2D `json:"spawns" yaml:"spawns"`
}

// Load reads a level file. .yaml and .yml files are YAML, anything else JSON.
func Load(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}
	lvl, err := Parse(data, isYAML(path))
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", filepath.Base(path), err)
	}
	return lvl, nil
}

// Parse decodes and validates level data
func Parse(data []byte, asYAML bool) (*Level, error) {
	var lvl Level
	var err error
	if asYAML {
		err = yaml.Unmarshal(data, &lvl)
	} else {
		err = json.Unmarshal(data, &lvl)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse level: %w", err)
	}
	if lvl.TileSize <= 0 {
		lvl.TileSize = entity.DefaultTileSize
	}
	if err := lvl.validate(); err != nil {
		return nil, err
	}
	return &lvl, nil
}

func (l *Level) validate() error {
	if len(l.Grid) == 0 {
		return ErrEmptyGrid
	}
	for row, line := range l.Grid {
		for col, sym := range line {
			if sym == Blank {
				continue
			}
			if _, ok := l.Legend[string(sym)]; !ok {
				return fmt.Errorf("%w: %q at row %d col %d", ErrUnknownSymbol, sym, row, col)
			}
		}
	}
	return nil
}

// Size returns the level extent in world pixels, offset included
func (l *Level) Size() physics.Vector2D {
	cols := 0
	for _, line := range l.Grid {
		if n := len([]rune(line)); n > cols {
			cols = n
		}
	}
	return physics.Vec(
		(float64(cols)+l.TopLeft.X)*l.TileSize,
		(float64(len(l.Grid))+l.TopLeft.Y)*l.TileSize,
	)
}

// Fits reports ErrTooLarge when the level overflows a width x height map
func (l *Level) Fits(width, height float64) error {
	size := l.Size()
	if size.X > width || size.Y > height {
		return fmt.Errorf("%w: level %vx%v, map %vx%v", ErrTooLarge, size.X, size.Y, width, height)
	}
	return nil
}

// Tiles builds one tile per non-blank cell, row by row, with ids from ids.
func (l *Level) Tiles(ids *entity.IDAllocator) []*entity.Tile {
	size := physics.Vec(l.TileSize, l.TileSize)
	grid := l.runes()

	var tiles []*entity.Tile
	for row, line := range grid {
		for col, sym := range line {
			if sym == Blank {
				continue
			}
			def := l.Legend[string(sym)]
			cell := physics.Vec(float64(col), float64(row))
			t := entity.NewTile(ids.Next(), cell, def.Name, def.Traversal, around(grid, row, col))
			tiles = append(tiles, t.MakeBox(size, l.TopLeft))
		}
	}
	return tiles
}

// BuildRegions creates the trigger regions with ids from ids
func (l *Level) BuildRegions(ids *entity.IDAllocator) []*entity.Region {
	regions := make([]*entity.Region, 0, len(l.Regions))
	for _, def := range l.Regions {
		if def.Objective {
			r := entity.NewObjectiveRegion(ids.Next(), def.Center, def.Size, def.Name)
			if def.Color != "" {
				r.Color = def.Color
			}
			regions = append(regions, r)
			continue
		}
		regions = append(regions, entity.NewRegion(ids.Next(), def.Name, def.Color, def.Center, def.Size))
	}
	return regions
}

// Spawn returns the n-th spawn point, cycling. Without spawn points it is
// the centre of the level.
func (l *Level) Spawn(n int) physics.Vector2D {
	if len(l.Spawns) == 0 {
		return l.Size().Scale(0.5)
	}
	if n < 0 {
		n = -n
	}
	return l.Spawns[n%len(l.Spawns)]
}

func (l *Level) runes() [][]rune {
	grid := make([][]rune, len(l.Grid))
	for i, line := range l.Grid {
		grid[i] = []rune(line)
	}
	return grid
}

// around returns the neighbour bits of cells holding the same symbol
func around(grid [][]rune, row, col int) int {
	sym := grid[row][col]
	same := func(r, c int) bool {
		return r >= 0 && r < len(grid) && c >= 0 && c < len(grid[r]) && grid[r][c] == sym
	}
	mask := 0
	if same(row-1, col) {
		mask |= North
	}
	if same(row, col+1) {
		mask |= East
	}
	if same(row+1, col) {
		mask |= South
	}
	if same(row, col-1) {
		mask |= West
	}
	return mask
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
