package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/willie68/go_mapmosaic/internal/mercantile"
	"github.com/willie68/go_mapmosaic/internal/model"
)

type wmsProvider struct {
	name   string
	log    *slog.Logger
	config Config
	cl     *http.Client
}

func (s *wmsProvider) Tile(ctx context.Context, tile model.Tile) (io.ReadCloser, error) {
	wmsURL, err := s.buildWMSUrl(s.tileToBBox(tile))
	if err != nil {
		return nil, err
	}
	s.log.Debug(fmt.Sprintf("requesting WMS tile from %s", wmsURL))
	rd, err := fetch(ctx, s.cl, wmsURL, s.config.Headers)
	if err != nil {
		s.log.Error(fmt.Sprintf("error on wms request: %v", err))
		return nil, err
	}
	return rd, nil
}

func (s *wmsProvider) buildWMSUrl(bb mercantile.Bbox) (string, error) {
	base, err := url.Parse(s.config.URL)
	if err != nil {
		return "", fmt.Errorf("invalid wms url of %s: %w", s.name, err)
	}

	params := base.Query()
	params.Set("service", "WMS")
	params.Set("request", "GetMap")
	params.Set("layers", s.config.Layers)
	format := s.config.Format
	if format == "" {
		format = "image/png"
	}
	params.Set("format", format)
	params.Set("bbox", fmt.Sprintf("%.9f,%.9f,%.9f,%.9f", bb.Left, bb.Bottom, bb.Right, bb.Top))
	params.Set("width", "256")
	params.Set("height", "256")
	version := s.config.Version
	if version == "" {
		version = "1.3.0"
	}
	params.Set("version", version)
	if version == "1.3.0" {
		params.Set("crs", "EPSG:3857")
	} else {
		params.Set("srs", "EPSG:3857")
	}
	params.Set("styles", s.config.Styles)

	base.RawQuery = params.Encode()
	return base.String(), nil
}

func (s *wmsProvider) tileToBBox(tile model.Tile) mercantile.Bbox {
	return mercantile.XyBounds(mercantile.TileID{X: tile.X, Y: tile.Y, Z: tile.Z})
}
