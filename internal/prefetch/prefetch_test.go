package prefetch

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willie68/go_mapmosaic/internal/calibration"
	"github.com/willie68/go_mapmosaic/internal/model"
	"github.com/willie68/go_mapmosaic/internal/position"
	"github.com/willie68/go_mapmosaic/internal/surface"
)

type fakeTiles struct {
	sync.Mutex
	fetched []model.Tile
	fail    int
}

func (f *fakeTiles) FTile(_ context.Context, tile model.Tile) (io.ReadCloser, error) {
	f.Lock()
	defer f.Unlock()
	if tile.X == f.fail {
		return nil, errors.New("tile not available")
	}
	f.fetched = append(f.fetched, tile)
	return io.NopCloser(strings.NewReader("tile")), nil
}

func plan(x string, w, h int) calibration.BoundingPlan {
	return calibration.BoundingPlan{
		TopLeft: position.New(decimal.RequireFromString(x), decimal.Zero, 2),
		Width:   w,
		Height:  h,
		Shift: calibration.ShiftVector{
			Right: decimal.RequireFromString("90"),
			Up:    decimal.RequireFromString("10"),
		},
	}
}

func newPrefetcher(ft *fakeTiles) *Prefetcher {
	return New(surface.Config{Type: surface.TypeTiles, Provider: "osm", Width: 256, Height: 256, TileSize: 256, Prefetch: 4}, ft)
}

func sortTiles(ts []model.Tile) {
	slices.SortFunc(ts, func(a, b model.Tile) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
}

func TestTiles(t *testing.T) {
	ast := assert.New(t)
	p := newPrefetcher(&fakeTiles{fail: -1})

	tiles := p.Tiles(plan("0", 1, 1))
	sortTiles(tiles)
	ast.Equal([]model.Tile{
		{Provider: "osm", Z: 2, X: 1, Y: 1},
		{Provider: "osm", Z: 2, X: 2, Y: 1},
		{Provider: "osm", Z: 2, X: 1, Y: 2},
		{Provider: "osm", Z: 2, X: 2, Y: 2},
	}, tiles)

	// the antimeridian wraps around
	tiles = p.Tiles(plan("-180", 1, 1))
	sortTiles(tiles)
	ast.Equal([]model.Tile{
		{Provider: "osm", Z: 2, X: 0, Y: 1},
		{Provider: "osm", Z: 2, X: 3, Y: 1},
		{Provider: "osm", Z: 2, X: 0, Y: 2},
		{Provider: "osm", Z: 2, X: 3, Y: 2},
	}, tiles)

	// two frames 90 degrees apart need one more column
	ast.Len(p.Tiles(plan("0", 2, 1)), 6)
}

func TestPrefetch(t *testing.T) {
	ast := assert.New(t)
	ft := &fakeTiles{fail: 2}
	p := newPrefetcher(ft)

	n, err := p.Prefetch(context.Background(), plan("0", 1, 1))
	require.NoError(t, err)
	ast.Equal(2, n)
	ast.Len(ft.fetched, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Prefetch(ctx, plan("0", 1, 1))
	ast.ErrorIs(err, context.Canceled)
}
