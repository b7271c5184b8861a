package surface

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"time"

	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/mercantile"
	"github.com/willie68/go_mapmosaic/internal/model"
	"github.com/willie68/go_mapmosaic/internal/position"
)

const maxZoom = 24

// tilesSurface renders the view out of slippy map tiles of a provider.
// x is the longitude, y the latitude and z the zoom level of the tiles.
type tilesSurface struct {
	log      *slog.Logger
	tiles    tileFetcher
	provider string
	width    int
	height   int
	tileSize int
	cur      position.Position
}

var _ Surface = (*tilesSurface)(nil)

// NewTiles creates the surface on the named provider
func NewTiles(cfg Config, tiles tileFetcher) (*tilesSurface, error) {
	if cfg.Provider == "" {
		return nil, errors.New("tiles surface needs a provider")
	}
	return &tilesSurface{
		log:      logging.New("tiles-surface"),
		tiles:    tiles,
		provider: cfg.Provider,
		width:    cfg.Width,
		height:   cfg.Height,
		tileSize: cfg.TileSize,
		cur:      position.Default(),
	}, nil
}

func (t *tilesSurface) Navigate(_ context.Context, pos position.Position) error {
	if pos.Z > maxZoom {
		return errors.Errorf("zoom level %d not supported, max is %d", pos.Z, maxZoom)
	}
	t.cur = pos
	return nil
}

func (t *tilesSurface) Current(_ context.Context) (position.Position, error) {
	return t.cur, nil
}

// WaitForReady rendering happens in Snapshot, so the surface is always ready
func (t *tilesSurface) WaitForReady(ctx context.Context, _ time.Duration) (bool, error) {
	return ctx.Err() == nil, ctx.Err()
}

func (t *tilesSurface) HideInteractive(context.Context) error {
	return nil
}

func (t *tilesSurface) PrepareForPosition(context.Context) error {
	return nil
}

func (t *tilesSurface) PrepareForScreenshot(context.Context) error {
	return nil
}

func (t *tilesSurface) Snapshot(ctx context.Context) ([]byte, error) {
	img, err := t.render(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *tilesSurface) Close() error {
	return nil
}

// render draws all tiles covering the viewport centered at the current position
func (t *tilesSurface) render(ctx context.Context) (*image.NRGBA, error) {
	z := t.cur.Z
	ts := t.tileSize
	cx, cy := mercantile.LonLatToPixel(t.cur.X.InexactFloat64(), t.cur.Y.InexactFloat64(), z, ts)
	left := int(math.Floor(cx - float64(t.width)/2))
	top := int(math.Floor(cy - float64(t.height)/2))

	canvas := image.NewNRGBA(image.Rect(0, 0, t.width, t.height))
	n := 1 << z
	missing := 0
	for ty := floorDiv(top, ts); ty <= floorDiv(top+t.height-1, ts); ty++ {
		if ty < 0 || ty >= n {
			continue
		}
		for tx := floorDiv(left, ts); tx <= floorDiv(left+t.width-1, ts); tx++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			tile := model.Tile{Provider: t.provider, Z: z, X: ((tx % n) + n) % n, Y: ty}
			img, err := t.tile(ctx, tile)
			if err != nil {
				t.log.Warn(fmt.Sprintf("tile %s missing: %v", tile.String(), err))
				missing++
				continue
			}
			dst := image.Rect(tx*ts-left, ty*ts-top, tx*ts-left+ts, ty*ts-top+ts)
			if img.Bounds().Dx() == ts && img.Bounds().Dy() == ts {
				draw.Draw(canvas, dst, img, img.Bounds().Min, draw.Src)
			} else {
				xdraw.ApproxBiLinear.Scale(canvas, dst, img, img.Bounds(), draw.Src, nil)
			}
		}
	}
	if missing > 0 {
		t.log.Warn(fmt.Sprintf("%d tiles missing in view %s", missing, t.cur))
	}
	return canvas, nil
}

func (t *tilesSurface) tile(ctx context.Context, tile model.Tile) (image.Image, error) {
	rd, err := t.tiles.FTile(ctx, tile)
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	img, _, err := image.Decode(rd)
	if err != nil {
		return nil, errors.Wrap(err, "can't decode tile")
	}
	return img, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
