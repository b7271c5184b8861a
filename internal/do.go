package internal

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/willie68/go_mapmosaic/internal/config"
	"github.com/willie68/go_mapmosaic/internal/framestore"
	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/mosaic"
	"github.com/willie68/go_mapmosaic/internal/prefetch"
	"github.com/willie68/go_mapmosaic/internal/provider"
	"github.com/willie68/go_mapmosaic/internal/shttp"
	"github.com/willie68/go_mapmosaic/internal/surface"
	"github.com/willie68/go_mapmosaic/internal/tilecache"
	"github.com/willie68/go_mapmosaic/internal/tiles"
	"github.com/willie68/go_mapmosaic/internal/utils/measurement"
)

var log = logging.New("internal")

// Init registers everything a run needs except the capture surface
func Init(inj do.Injector) {
	config.Init(inj)
	logging.Init(inj)
	measurement.Init(inj)
	framestore.Init(inj)
	shttp.Init(inj)
	do.ProvideValue(inj, mosaic.NewBoard())
}

// InitSurface opens the capture surface. The tiles surface gets the tile
// cache, the providers and the tile service first.
func InitSurface(inj do.Injector) error {
	cfg := do.MustInvoke[*surface.Config](inj)
	cfg.Defaults()
	if cfg.Type == surface.TypeTiles {
		tilecache.Init(inj)
		provider.Init(inj)
		tiles.Init(inj)
		prefetch.Init(inj)
	}
	return surface.Init(inj)
}

type providerNames interface {
	Names() []string
}

// Stop releases the surface, the providers, the tile cache and the server.
// Services never created are skipped.
func Stop(inj do.Injector) {
	if sh, err := do.Invoke[*shttp.SHttp](inj); err == nil {
		sh.ShutdownServers()
	}
	if s, err := do.Invoke[surface.Surface](inj); err == nil {
		if err := s.Close(); err != nil {
			log.Error(fmt.Sprintf("error on close surface: %v", err))
		}
	}
	if pn, err := do.InvokeAs[providerNames](inj); err == nil {
		for _, n := range pn.Names() {
			p, err := do.InvokeNamed[provider.Service](inj, n)
			if err != nil {
				continue
			}
			if c, ok := p.(interface{ Close() }); ok {
				c.Close()
			}
		}
	}
	if tc, err := do.Invoke[*tilecache.Cache](inj); err == nil {
		if err := tc.Close(); err != nil {
			log.Error(fmt.Sprintf("error on close tilecache: %v", err))
		}
	}
	logging.Close()
}
