package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willie68/go_mapmosaic/configs"
	"github.com/willie68/go_mapmosaic/internal/capture"
	"github.com/willie68/go_mapmosaic/internal/mosaic"
	"github.com/willie68/go_mapmosaic/internal/provider"
	"github.com/willie68/go_mapmosaic/internal/surface"
)

func TestDefaultConfig(t *testing.T) {
	ast := assert.New(t)
	require.NoError(t, Parse([]byte(configs.ConfigFile)))
	c := Get()

	ast.Equal("box", c.Mode)
	ast.Equal(surface.TypeBrowser, c.Surface.Type)
	ast.Equal(1920, c.Surface.Width)
	ast.NotEmpty(c.Surface.HideSelectors)
	ast.Equal(10*time.Second, c.Capture.ReadyTimeout)
	ast.Equal(5*time.Second, c.Capture.GraceDelay)
	ast.Nil(c.Capture.Crop)
	ast.Equal("map.png", c.Mosaic.Output)
	ast.Equal(8580, c.HTTP.Port)
	ast.Contains(c.Providers, "osm")
	ast.Equal("xyz", c.GetProviderConfig()["osm"].Type)

	js := JSON()
	ast.Contains(js, "readytimeout")
}

func TestLoadAndOverride(t *testing.T) {
	ast := assert.New(t)
	fn := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(`
surface:
  type: tiles
capture:
  crop:
    x: 1
    y: 2
    width: 30
    height: 40
`), 0o644))

	require.NoError(t, Load(fn))
	c := Get()
	ast.Equal("tiles", c.Surface.Type)
	ast.Equal(&capture.Rect{X: 1, Y: 2, Width: 30, Height: 40}, c.Capture.Crop)
	ast.Equal("frames", c.Frames.Path)
	ast.Equal(5*time.Second, c.Capture.GraceDelay)

	SetParameter(WithMode("center"), WithOutput("out.jpg"), WithSurface(""), WithPort(0))
	ast.Equal("center", c.Mode)
	ast.Equal("out.jpg", c.Mosaic.Output)
	ast.Equal("tiles", c.Surface.Type)
	ast.Equal(0, c.HTTP.Port)

	ast.Error(Load(filepath.Join(t.TempDir(), "missing.yaml")))
	ast.Error(Parse([]byte("surface: [")))
}

func TestInit(t *testing.T) {
	ast := assert.New(t)
	require.NoError(t, Parse([]byte(configs.ConfigFile)))
	inj := do.New()
	Init(inj)

	ast.Same(&Get().Mosaic, do.MustInvoke[*mosaic.Config](inj))
	ast.Same(&Get().Surface, do.MustInvoke[*surface.Config](inj))
	pc := do.MustInvokeAs[interface{ GetProviderConfig() provider.ConfigMap }](inj)
	ast.Contains(pc.GetProviderConfig(), "osm")

	v := do.MustInvoke[Version](inj)
	ast.Contains(v.String(), "go_mapmosaic")
}
