package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/i0tool5/mbtiles-go"
	"github.com/samber/do/v2"

	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/mercantile"
	"github.com/willie68/go_mapmosaic/internal/model"
)

type metadata struct {
	Name    string
	Format  string
	Maxzoom int
	Minzoom int
	BBox    *mercantile.Bbox
}

type mbtilesProvider struct {
	log  *slog.Logger
	db   *mbtiles.MBtiles
	fb   string
	meta metadata
	inj  do.Injector
}

// NewMBTilesProvider opens the mbtiles file of the config
func NewMBTilesProvider(name string, config Config, inj do.Injector) (*mbtilesProvider, error) {
	log := logging.New(fmt.Sprintf("mbtiles: %s", name))
	db, err := mbtiles.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mbtiles database %s: %w", config.Path, err)
	}
	tf := db.GetTileFormat()
	log.Info(fmt.Sprintf("mbtiles format: %s", tf.String()))
	meta, err := db.ReadMetadata()
	if err != nil {
		log.Error(fmt.Sprintf("failed to read mbtiles metadata: %v", err))
	}
	mbt := &mbtilesProvider{
		log: log,
		db:  db,
		fb:  config.Fallback,
		inj: inj,
		meta: metadata{
			Maxzoom: 22,
		},
	}
	mbt.parseMetadata(meta)
	return mbt, nil
}

func (s *mbtilesProvider) Tile(ctx context.Context, tile model.Tile) (io.ReadCloser, error) {
	if tile.Z < s.meta.Minzoom || tile.Z > s.meta.Maxzoom {
		if s.fb != "" {
			return s.fallback(ctx, tile)
		}
		return nil, fmt.Errorf("zoom level %d out of bounds (%d - %d)", tile.Z, s.meta.Minzoom, s.meta.Maxzoom)
	}
	if s.meta.BBox != nil {
		tbox := mercantile.ULBounds(mercantile.TileID{X: tile.X, Y: tile.Y, Z: tile.Z})
		if tbox.Left > s.meta.BBox.Right || tbox.Right < s.meta.BBox.Left || tbox.Top < s.meta.BBox.Bottom || tbox.Bottom > s.meta.BBox.Top {
			if s.fb != "" {
				return s.fallback(ctx, tile)
			}
			return nil, fmt.Errorf("tile %d/%d/%d out of bounds", tile.Z, tile.X, tile.Y)
		}
	}
	// mbtiles rows count from south
	y := (1 << tile.Z) - tile.Y - 1
	var data []byte
	err := s.db.ReadTile(int64(tile.Z), int64(tile.X), int64(y), &data)
	if err != nil || len(data) == 0 {
		if s.fb != "" {
			return s.fallback(ctx, tile)
		}
		return nil, fmt.Errorf("failed to read tile: %v", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *mbtilesProvider) fallback(ctx context.Context, tile model.Tile) (io.ReadCloser, error) {
	ts, err := do.InvokeNamed[Service](s.inj, s.fb)
	if err != nil {
		s.log.Error(fmt.Sprintf("fallback provider error: %v", err))
		return nil, err
	}
	return ts.Tile(ctx, tile)
}

func (s *mbtilesProvider) parseMetadata(meta map[string]any) {
	s.meta.Name, _ = meta["name"].(string)
	s.meta.Format, _ = meta["format"].(string)
	if maxzoom, ok := meta["maxzoom"].(int); ok {
		s.meta.Maxzoom = maxzoom
	}
	if minzoom, ok := meta["minzoom"].(int); ok {
		s.meta.Minzoom = minzoom
	}
	if bbox, ok := meta["bounds"].([]float64); ok && len(bbox) == 4 {
		s.meta.BBox = &mercantile.Bbox{Left: bbox[0], Bottom: bbox[1], Right: bbox[2], Top: bbox[3]}
	}
}

// Close closes the mbtiles database
func (s *mbtilesProvider) Close() {
	s.db.Close()
}
