package grid

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willie68/go_mapmosaic/internal/calibration"
	"github.com/willie68/go_mapmosaic/internal/position"
)

func testPlan() calibration.BoundingPlan {
	return calibration.BoundingPlan{
		TopLeft: position.New(decimal.RequireFromString("14.3"), decimal.RequireFromString("50.2"), 16),
		Width:   3,
		Height:  2,
		Shift: calibration.ShiftVector{
			Right: decimal.RequireFromString("0.035"),
			Up:    decimal.RequireFromString("0.01"),
		},
	}
}

func TestPosition(t *testing.T) {
	ast := assert.New(t)
	plan := testPlan()

	p := Position(plan, 0, 0)
	ast.True(p.Equal(plan.TopLeft))

	p = Position(plan, 1, 2)
	ast.True(p.X.Equal(decimal.RequireFromString("14.37")), p.String())
	ast.True(p.Y.Equal(decimal.RequireFromString("50.19")), p.String())
	ast.Equal(16, p.Z)

	// a plan rebuilt from the same values yields the same geometry
	again := testPlan()
	for r := range plan.Height {
		for c := range plan.Width {
			ast.True(Position(plan, r, c).Equal(Position(again, r, c)))
		}
	}
}

func TestPositionLargeGridExact(t *testing.T) {
	ast := assert.New(t)
	plan := testPlan()
	p := Position(plan, 1000, 1000)
	ast.True(p.X.Equal(decimal.RequireFromString("49.3")), p.String())
	ast.True(p.Y.Equal(decimal.RequireFromString("40.2")), p.String())
}

func TestGrid(t *testing.T) {
	ast := assert.New(t)
	g, err := ForPlan(testPlan())
	require.NoError(t, err)
	ast.Equal(3, g.Width())
	ast.Equal(2, g.Height())
	ast.False(g.Complete())
	ast.Len(g.Missing(), 6)

	ast.NoError(g.Set(Cell{1, 1}, "frame-1-1.png"))
	ast.NoError(g.Set(Cell{0, 2}, "frame-0-2.png"))
	err = g.Set(Cell{2, 0}, "frame-2-0.png")
	ast.True(errors.Is(err, ErrOutOfRange))

	ref, ok := g.Get(Cell{1, 1})
	ast.True(ok)
	ast.Equal("frame-1-1.png", ref)
	_, ok = g.Get(Cell{0, 0})
	ast.False(ok)

	ast.Equal([]Cell{{0, 2}, {1, 1}}, g.Filled())
	ast.Equal([]Cell{{0, 0}, {0, 1}, {1, 0}, {1, 2}}, g.Missing())

	order := make([]Cell, 0)
	for c := range g.All() {
		order = append(order, c)
	}
	ast.Equal([]Cell{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}, order)
}

func TestGridTooLarge(t *testing.T) {
	ast := assert.New(t)
	_, err := New(4000000001, 4000000001)
	ast.True(errors.Is(err, ErrTooLarge))
	_, err = New(calibration.MaxTiles, 2)
	ast.True(errors.Is(err, ErrTooLarge))

	g, err := New(-1, 3)
	ast.NoError(err)
	ast.Equal(0, g.Width())
	ast.Empty(g.Missing())
}

func TestParseCells(t *testing.T) {
	ast := assert.New(t)
	cells, errs := ParseCells("0-1, 2-3;4-5 0-1 x-1 7")
	ast.Equal([]Cell{{0, 1}, {2, 3}, {4, 5}}, cells)
	ast.Len(errs, 2)
	for _, err := range errs {
		ast.True(errors.Is(err, ErrBadCell))
	}

	cells, errs = ParseCells("")
	ast.Empty(cells)
	ast.Empty(errs)
}
