package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willie68/go_mapmosaic/internal/grid"
	"github.com/willie68/go_mapmosaic/internal/model"
	"github.com/willie68/go_mapmosaic/internal/mosaic"
	"github.com/willie68/go_mapmosaic/internal/provider"
	"github.com/willie68/go_mapmosaic/internal/utils/measurement"
)

type fakeTiles struct {
	requested []model.Tile
}

func (f *fakeTiles) FTile(_ context.Context, tile model.Tile) (io.ReadCloser, error) {
	if tile.Provider != "osm" {
		return nil, provider.ErrNotFound
	}
	if tile.Z == 3 {
		return nil, errors.New("upstream down")
	}
	f.requested = append(f.requested, tile)
	return io.NopCloser(strings.NewReader("tiledata")), nil
}

func setup(t *testing.T, withTiles bool) (*httptest.Server, *mosaic.Board, *measurement.Service, *fakeTiles) {
	inj := do.New()
	b := mosaic.NewBoard()
	ms := measurement.New(true)
	do.ProvideValue(inj, b)
	do.ProvideValue(inj, ms)
	ft := &fakeTiles{}
	if withTiles {
		do.ProvideValue(inj, ft)
	}
	router, err := Routes(inj)
	require.NoError(t, err)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, b, ms, ft
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, body
}

func TestHealth(t *testing.T) {
	ast := assert.New(t)
	srv, _, _, _ := setup(t, false)

	res, body := get(t, srv.URL+"/healthz")
	ast.Equal(http.StatusOK, res.StatusCode)
	ast.Contains(string(body), `"ok"`)
}

func TestPreview(t *testing.T) {
	ast := assert.New(t)
	srv, b, _, _ := setup(t, false)

	res, _ := get(t, srv.URL+"/preview.png")
	ast.Equal(http.StatusNotFound, res.StatusCode)

	require.NoError(t, b.SetPreview(image.NewNRGBA(image.Rect(0, 0, 8, 6)), mosaic.Offset{X: 3, Y: 4}))
	res, body := get(t, srv.URL+"/preview.png")
	ast.Equal(http.StatusOK, res.StatusCode)
	ast.Equal("image/png", res.Header.Get("Content-Type"))
	ast.Equal("3,4", res.Header.Get("X-Mosaic-Offset"))
	cfg, err := png.DecodeConfig(bytes.NewReader(body))
	require.NoError(t, err)
	ast.Equal(8, cfg.Width)
	ast.Equal(6, cfg.Height)
}

func TestGrid(t *testing.T) {
	ast := assert.New(t)
	srv, b, _, _ := setup(t, false)

	res, _ := get(t, srv.URL+BaseURL+"/grid")
	ast.Equal(http.StatusNotFound, res.StatusCode)

	g, err := grid.New(2, 2)
	require.NoError(t, err)
	require.NoError(t, g.Set(grid.Cell{Row: 1, Col: 0}, "frame-1-0.png"))
	b.SetGrid(g)

	res, body := get(t, srv.URL+BaseURL+"/grid")
	ast.Equal(http.StatusOK, res.StatusCode)
	var gi GridInfo
	require.NoError(t, json.Unmarshal(body, &gi))
	ast.Equal(2, gi.Width)
	ast.Equal(2, gi.Height)
	ast.Equal([]grid.Cell{{Row: 1, Col: 0}}, gi.Filled)
	ast.Len(gi.Missing, 3)
	ast.False(gi.Done)
}

func TestMetrics(t *testing.T) {
	ast := assert.New(t)
	srv, _, ms, _ := setup(t, false)

	m := ms.Start("captureFrame")
	m.Stop()

	res, body := get(t, srv.URL+BaseURL+"/metrics")
	ast.Equal(http.StatusOK, res.StatusCode)
	var datas []measurement.Data
	require.NoError(t, json.Unmarshal(body, &datas))
	require.Len(t, datas, 1)
	ast.Equal("captureFrame", datas[0].Name)
	ast.Equal(1, datas[0].Count)

	res, body = get(t, srv.URL+"/metrics")
	ast.Equal(http.StatusOK, res.StatusCode)
	ast.Contains(string(body), `mapmosaic_point_count_total{point="captureFrame"} 1`)
	ast.Contains(string(body), "go_goroutines")

	res, err := http.Post(srv.URL+BaseURL+"/metrics/reset", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	ast.Equal(http.StatusNoContent, res.StatusCode)
	ast.Equal(0, ms.Point("captureFrame").Data().Count)
}

func TestTiles(t *testing.T) {
	ast := assert.New(t)
	srv, _, _, ft := setup(t, true)

	res, body := get(t, srv.URL+BaseURL+"/tiles/osm/2/1/3.png")
	ast.Equal(http.StatusOK, res.StatusCode)
	ast.Equal("tiledata", string(body))
	ast.Equal([]model.Tile{{Provider: "osm", Z: 2, X: 1, Y: 3}}, ft.requested)

	res, _ = get(t, srv.URL+BaseURL+"/tiles/osm/2/4/3.png")
	ast.Equal(http.StatusBadRequest, res.StatusCode)
	res, _ = get(t, srv.URL+BaseURL+"/tiles/osm/a/1/1.png")
	ast.Equal(http.StatusBadRequest, res.StatusCode)
	res, _ = get(t, srv.URL+BaseURL+"/tiles/topo/2/1/1.png")
	ast.Equal(http.StatusNotFound, res.StatusCode)
	res, _ = get(t, srv.URL+BaseURL+"/tiles/osm/3/1/1.png")
	ast.Equal(http.StatusBadGateway, res.StatusCode)

	srv, _, _, _ = setup(t, false)
	res, _ = get(t, srv.URL+BaseURL+"/tiles/osm/2/1/3.png")
	ast.Equal(http.StatusNotFound, res.StatusCode)
}
