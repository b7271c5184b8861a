// Package grid maps grid cells to map positions and keeps track of the
// captured frame of every cell.
package grid

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/willie68/go_mapmosaic/internal/calibration"
	"github.com/willie68/go_mapmosaic/internal/position"
	"github.com/willie68/go_mapmosaic/pkg/extstrgutils"
)

var (
	// ErrOutOfRange the cell is not part of the grid
	ErrOutOfRange = errors.New("cell out of range")
	// ErrBadCell a cell literal could not be parsed
	ErrBadCell = errors.New("malformed cell")
	// ErrTooLarge the grid would have more than calibration.MaxTiles cells
	ErrTooLarge = errors.New("grid too large")
)

// Cell a grid index, row 0 is north, col 0 is west
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("%d-%d", c.Row, c.Col)
}

// ParseCell parses "row-col"
func ParseCell(s string) (Cell, error) {
	rs, cs, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Cell{}, errors.Wrapf(ErrBadCell, "%q, expected row-col", s)
	}
	r, err := strconv.Atoi(rs)
	if err != nil || r < 0 {
		return Cell{}, errors.Wrapf(ErrBadCell, "%q, bad row", s)
	}
	c, err := strconv.Atoi(cs)
	if err != nil || c < 0 {
		return Cell{}, errors.Wrapf(ErrBadCell, "%q, bad column", s)
	}
	return Cell{Row: r, Col: c}, nil
}

// ParseCells parses a list like "0-1, 2-3; 4-5". Malformed entries are
// returned as errors and skipped, duplicates are removed.
func ParseCells(s string) ([]Cell, []error) {
	cells := make([]Cell, 0)
	seen := make(map[Cell]bool)
	var errs []error
	for _, v := range extstrgutils.SplitMultiValueParam(s) {
		c, err := ParseCell(v)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !seen[c] {
			seen[c] = true
			cells = append(cells, c)
		}
	}
	return cells, errs
}

// Position the map position of a cell: top left moved col steps east and row steps south
func Position(plan calibration.BoundingPlan, row, col int) position.Position {
	dx := plan.Shift.Right.Mul(decimal.NewFromInt(int64(col)))
	dy := plan.Shift.Up.Mul(decimal.NewFromInt(int64(row))).Neg()
	return plan.TopLeft.Offset(dx, dy)
}

// TileGrid width x height cells, each either empty or holding the reference
// to a stored frame
type TileGrid struct {
	lock   sync.RWMutex
	width  int
	height int
	cells  []string
}

// New creates an empty grid, negative sizes are taken as 0
func New(width, height int) (*TileGrid, error) {
	width = max(width, 0)
	height = max(height, 0)
	if width > calibration.MaxTiles || height > calibration.MaxTiles || width*height > calibration.MaxTiles {
		return nil, errors.Wrapf(ErrTooLarge, "%dx%d cells", width, height)
	}
	return &TileGrid{
		width:  width,
		height: height,
		cells:  make([]string, width*height),
	}, nil
}

// ForPlan creates an empty grid of the plans size
func ForPlan(plan calibration.BoundingPlan) (*TileGrid, error) {
	return New(plan.Width, plan.Height)
}

func (g *TileGrid) Width() int {
	return g.width
}

func (g *TileGrid) Height() int {
	return g.height
}

// Contains checks if the cell is part of the grid
func (g *TileGrid) Contains(c Cell) bool {
	return c.Row >= 0 && c.Row < g.height && c.Col >= 0 && c.Col < g.width
}

// Set stores the frame reference of a cell
func (g *TileGrid) Set(c Cell, ref string) error {
	if !g.Contains(c) {
		return errors.Wrapf(ErrOutOfRange, "cell %s in %dx%d grid", c, g.width, g.height)
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	g.cells[c.Row*g.width+c.Col] = ref
	return nil
}

// Get the frame reference of a cell, false if not yet captured
func (g *TileGrid) Get(c Cell) (string, bool) {
	if !g.Contains(c) {
		return "", false
	}
	g.lock.RLock()
	defer g.lock.RUnlock()
	ref := g.cells[c.Row*g.width+c.Col]
	return ref, ref != ""
}

// All iterates over all cells in row major order, the reference is empty for
// cells not captured yet
func (g *TileGrid) All() iter.Seq2[Cell, string] {
	return func(yield func(Cell, string) bool) {
		for r := range g.height {
			for c := range g.width {
				cell := Cell{Row: r, Col: c}
				ref, _ := g.Get(cell)
				if !yield(cell, ref) {
					return
				}
			}
		}
	}
}

// Filled all captured cells in row major order
func (g *TileGrid) Filled() []Cell {
	res := make([]Cell, 0)
	for c, ref := range g.All() {
		if ref != "" {
			res = append(res, c)
		}
	}
	return res
}

// Missing all cells not yet captured in row major order
func (g *TileGrid) Missing() []Cell {
	res := make([]Cell, 0)
	for c, ref := range g.All() {
		if ref == "" {
			res = append(res, c)
		}
	}
	return res
}

// Complete true if every cell holds a frame
func (g *TileGrid) Complete() bool {
	return len(g.Missing()) == 0
}
