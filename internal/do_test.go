package internal

import (
	"context"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willie68/go_mapmosaic/internal/config"
	"github.com/willie68/go_mapmosaic/internal/framestore"
	"github.com/willie68/go_mapmosaic/internal/mosaic"
	"github.com/willie68/go_mapmosaic/internal/position"
	"github.com/willie68/go_mapmosaic/internal/shttp"
	"github.com/willie68/go_mapmosaic/internal/surface"
	"github.com/willie68/go_mapmosaic/internal/tilecache"
	"github.com/willie68/go_mapmosaic/internal/tiles"
	"github.com/willie68/go_mapmosaic/internal/utils/measurement"
)

func TestInitTilesSurface(t *testing.T) {
	ast := assert.New(t)
	require.NoError(t, config.Parse([]byte(`
surface:
  type: tiles
  width: 32
  height: 32
  provider: none
providers:
  broken:
    type: unknown
cache:
  active: true
  inmemory: true
frames:
  path: `+t.TempDir()+`
logging:
  level: warn
`)))
	inj := do.New()
	Init(inj)
	defer Stop(inj)

	ast.NotNil(do.MustInvoke[*framestore.Store](inj))
	ast.NotNil(do.MustInvoke[*mosaic.Board](inj))
	ast.NotNil(do.MustInvoke[*measurement.Service](inj))
	ast.NotNil(do.MustInvoke[*shttp.SHttp](inj))

	require.NoError(t, InitSurface(inj))
	ast.NotNil(do.MustInvoke[*tilecache.Cache](inj))
	ast.NotNil(do.MustInvoke[*tiles.Service](inj))

	s := do.MustInvoke[surface.Surface](inj)
	ctx := context.Background()
	require.NoError(t, s.Navigate(ctx, position.Default()))
	// unknown provider, the view stays empty but is rendered
	data, err := s.Snapshot(ctx)
	ast.NoError(err)
	ast.NotEmpty(data)
}

func TestInitUnknownSurface(t *testing.T) {
	ast := assert.New(t)
	require.NoError(t, config.Parse([]byte(`
surface:
  type: paper
frames:
  path: `+t.TempDir()+`
`)))
	inj := do.New()
	Init(inj)
	defer Stop(inj)

	ast.Error(InitSurface(inj))
}
