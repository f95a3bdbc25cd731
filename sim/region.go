package sim

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/pthm-cable/respire/config"
	"github.com/pthm-cable/respire/gas"
)

// Region is one grid cell with its own environment mixture.
// mu serializes every mutation of Env; organisms in the same region share it.
type Region struct {
	Index    int
	Col, Row int
	Env      *gas.Mixture

	mu sync.Mutex
}

// Label returns the "col,row" name used in logs and metric labels.
func (r *Region) Label() string {
	return strconv.Itoa(r.Col) + "," + strconv.Itoa(r.Row)
}

// Grid is a fixed cols x rows layout of square regions.
type Grid struct {
	cols, rows int
	size       float32
	regions    []*Region
}

// NewGrid builds the region grid and fills every region from the configured
// atmosphere, applying per-region overrides.
func NewGrid(cfg *config.Config) (*Grid, error) {
	w := cfg.World
	g := &Grid{
		cols:    w.Cols,
		rows:    w.Rows,
		size:    float32(w.RegionSize),
		regions: make([]*Region, 0, w.Cols*w.Rows),
	}

	atmosphere, err := cfg.Composition(cfg.Atmosphere.Composition)
	if err != nil {
		return nil, fmt.Errorf("atmosphere: %w", err)
	}

	for row := 0; row < w.Rows; row++ {
		for col := 0; col < w.Cols; col++ {
			env, err := gas.NewMixture(w.RegionVolume, w.Temperature, cfg.Derived.Registry)
			if err != nil {
				return nil, fmt.Errorf("region %d,%d: %w", col, row, err)
			}
			if err := gas.FillAtPressure(env, atmosphere, cfg.Atmosphere.Pressure); err != nil {
				return nil, fmt.Errorf("region %d,%d: %w", col, row, err)
			}
			g.regions = append(g.regions, &Region{Index: len(g.regions), Col: col, Row: row, Env: env})
		}
	}

	for i, o := range cfg.Regions {
		r := g.At(o.Col, o.Row)
		if r == nil {
			return nil, fmt.Errorf("regions[%d]: cell %d,%d outside grid", i, o.Col, o.Row)
		}
		comp, err := cfg.Composition(o.Composition)
		if err != nil {
			return nil, fmt.Errorf("regions[%d]: %w", i, err)
		}
		if err := gas.FillAtPressure(r.Env, comp, o.Pressure); err != nil {
			return nil, fmt.Errorf("regions[%d]: %w", i, err)
		}
	}

	return g, nil
}

// Len returns the number of regions.
func (g *Grid) Len() int { return len(g.regions) }

// Region returns the region with the given index.
func (g *Grid) Region(i int) *Region { return g.regions[i] }

// At returns the region at a grid cell, or nil if out of range.
func (g *Grid) At(col, row int) *Region {
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return nil
	}
	return g.regions[row*g.cols+col]
}

// IndexAt returns the index of the region containing a world position.
// Positions outside the grid clamp to the nearest edge region.
func (g *Grid) IndexAt(x, y float32) int {
	col := clampCell(int(x/g.size), g.cols)
	row := clampCell(int(y/g.size), g.rows)
	return row*g.cols + col
}

// Size returns the world dimensions covered by the grid.
func (g *Grid) Size() (w, h float32) {
	return float32(g.cols) * g.size, float32(g.rows) * g.size
}

// TotalMoles sums every region's environment.
// Callers must not run it concurrently with a tick.
func (g *Grid) TotalMoles() float64 {
	var total float64
	for _, r := range g.regions {
		total += r.Env.TotalMoles()
	}
	return total
}

func clampCell(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
