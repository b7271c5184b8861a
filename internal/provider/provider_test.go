package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willie68/go_mapmosaic/internal/model"
)

type cfgHolder struct {
	cm ConfigMap
}

func (c *cfgHolder) GetProviderConfig() ConfigMap {
	return c.cm
}

func TestBuildTMSUrl(t *testing.T) {
	ast := assert.New(t)
	tile := model.Tile{Provider: "osm", Z: 2, X: 1, Y: 0}

	xyz := &tmsProvider{config: Config{URL: "https://tile.example.org/{z}/{x}/{y}.png"}}
	ast.Equal("https://tile.example.org/2/1/0.png", xyz.buildTMSUrl(tile))

	tms := &tmsProvider{config: Config{URL: "https://tms.example.org/"}, isTMS: true}
	ast.Equal("https://tms.example.org/2/1/3.png", tms.buildTMSUrl(tile))
}

func TestBuildWMSUrl(t *testing.T) {
	ast := assert.New(t)
	w := &wmsProvider{name: "gebco", config: Config{URL: "https://wms.example.org/wms?map=x", Layers: "gebco"}}
	u, err := w.buildWMSUrl(w.tileToBBox(model.Tile{Z: 0}))
	ast.NoError(err)
	ast.Contains(u, "map=x")
	ast.Contains(u, "layers=gebco")
	ast.Contains(u, "request=GetMap")
	ast.Contains(u, "crs=EPSG%3A3857")
	ast.Contains(u, "bbox=-20037508.342789244")
}

func TestFactoryAndFetch(t *testing.T) {
	ast := assert.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ast.Equal("go_mapmosaic/0.1", r.Header.Get("User-Agent"))
		ast.Equal("secret", r.Header.Get("X-Api-Key"))
		if r.URL.Path == "/3/1/2.png" {
			w.Write([]byte("tile"))
			return
		}
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	inj := do.New()
	do.ProvideValue(inj, &cfgHolder{cm: ConfigMap{
		"osm":    {URL: srv.URL, Type: "xyz", Headers: map[string]string{"X-Api-Key": "secret"}},
		"cached": {URL: srv.URL, Type: "xyz", NoCached: true, Headers: map[string]string{"X-Api-Key": "secret"}},
		"broken": {Type: "unknown"},
	}})
	Init(inj)

	f := do.MustInvoke[*pFactory](inj)
	ast.Equal([]string{"cached", "osm"}, f.Names())
	ast.True(f.HasProvider("osm"))
	ast.True(f.IsCached("osm"))
	ast.False(f.IsCached("cached"))
	ast.False(f.IsCached("missing"))

	s := do.MustInvokeNamed[Service](inj, "osm")
	rd, err := s.Tile(context.Background(), model.Tile{Provider: "osm", Z: 3, X: 1, Y: 2})
	require.NoError(t, err)
	data, err := io.ReadAll(rd)
	rd.Close()
	ast.NoError(err)
	ast.Equal("tile", string(data))

	_, err = s.Tile(context.Background(), model.Tile{Provider: "osm", Z: 3, X: 1, Y: 3})
	ast.Error(err)
	ast.True(strings.Contains(err.Error(), "404"))
}
