// Package prefetch warms the tile cache for the area of a bounding plan, so
// the tiles surface renders every frame out of the cache.
package prefetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/samber/do/v2"

	"github.com/willie68/go_mapmosaic/internal/calibration"
	"github.com/willie68/go_mapmosaic/internal/grid"
	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/mercantile"
	"github.com/willie68/go_mapmosaic/internal/model"
	"github.com/willie68/go_mapmosaic/internal/surface"
)

type tileFetcher interface {
	FTile(ctx context.Context, tile model.Tile) (io.ReadCloser, error)
}

// Prefetcher warms the tile cache with the tiles of a plan
type Prefetcher struct {
	log      *slog.Logger
	tiles    tileFetcher
	workers  int
	provider string
	tileSize int
	width    int
	height   int
}

// Init provides the prefetcher if the tiles surface has prefetching enabled
func Init(inj do.Injector) {
	cfg := do.MustInvoke[*surface.Config](inj)
	if cfg.Type != surface.TypeTiles || cfg.Prefetch <= 0 {
		return
	}
	do.ProvideValue(inj, New(*cfg, do.MustInvokeAs[tileFetcher](inj)))
}

// New creates a prefetcher for the tiles surface described by cfg
func New(cfg surface.Config, tiles tileFetcher) *Prefetcher {
	cfg.Defaults()
	return &Prefetcher{
		log:      logging.New("prefetch"),
		tiles:    tiles,
		workers:  max(1, cfg.Prefetch),
		provider: cfg.Provider,
		tileSize: cfg.TileSize,
		width:    cfg.Width,
		height:   cfg.Height,
	}
}

// Tiles all provider tiles the frames of the plan are rendered from
func (p *Prefetcher) Tiles(plan calibration.BoundingPlan) []model.Tile {
	z := plan.TopLeft.Z
	tl := grid.Position(plan, 0, 0)
	br := grid.Position(plan, plan.Height-1, plan.Width-1)
	x0, y0 := mercantile.LonLatToPixel(tl.X.InexactFloat64(), tl.Y.InexactFloat64(), z, p.tileSize)
	x1, y1 := mercantile.LonLatToPixel(br.X.InexactFloat64(), br.Y.InexactFloat64(), z, p.tileSize)

	left := math.Floor(math.Min(x0, x1) - float64(p.width)/2)
	right := math.Floor(math.Max(x0, x1) + float64(p.width)/2)
	top := math.Floor(math.Min(y0, y1) - float64(p.height)/2)
	bottom := math.Floor(math.Max(y0, y1) + float64(p.height)/2)

	n := 1 << z
	ts := float64(p.tileSize)
	seen := make(map[model.Tile]struct{})
	tiles := make([]model.Tile, 0)
	for ty := int(math.Floor(top / ts)); ty <= int(math.Floor((bottom-1)/ts)); ty++ {
		if ty < 0 || ty >= n {
			continue
		}
		for tx := int(math.Floor(left / ts)); tx <= int(math.Floor((right-1)/ts)); tx++ {
			t := model.Tile{Provider: p.provider, Z: z, X: ((tx % n) + n) % n, Y: ty}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tiles = append(tiles, t)
		}
	}
	return tiles
}

// Prefetch fetches all tiles of the plan with the configured number of
// workers. Failed tiles are logged and fetched again while rendering.
func (p *Prefetcher) Prefetch(ctx context.Context, plan calibration.BoundingPlan) (int, error) {
	tiles := p.Tiles(plan)
	p.log.Info(fmt.Sprintf("prefetching %d tiles with %d workers", len(tiles), p.workers))

	jobs := make(chan model.Tile)
	var failed atomic.Int32
	wg := sync.WaitGroup{}
	for range p.workers {
		wg.Go(func() {
			for t := range jobs {
				rd, err := p.tiles.FTile(ctx, t)
				if err != nil {
					failed.Add(1)
					p.log.Warn(fmt.Sprintf("error getting tile %s: %v", t.String(), err))
					continue
				}
				_, _ = io.Copy(io.Discard, rd)
				rd.Close()
			}
		})
	}

feed:
	for _, t := range tiles {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- t:
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if f := int(failed.Load()); f > 0 {
		p.log.Warn(fmt.Sprintf("%d of %d tiles could not be prefetched", f, len(tiles)))
	}
	return len(tiles) - int(failed.Load()), nil
}
