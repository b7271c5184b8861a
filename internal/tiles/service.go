// Package tiles delivers provider tiles, from the cache if possible
package tiles

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/samber/do/v2"
	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/model"
	"github.com/willie68/go_mapmosaic/internal/provider"
	"github.com/willie68/go_mapmosaic/internal/utils/measurement"
)

type providerFactory interface {
	HasProvider(providerName string) bool
	IsCached(providerName string) bool
}

type tileCache interface {
	Tile(tile model.Tile) (io.ReadCloser, bool)
	Save(tile model.Tile, data io.Reader) error
	IsActive() bool
}

type Service struct {
	inj     do.Injector
	log     *slog.Logger
	cache   tileCache
	tssf    providerFactory
	metrics *measurement.Service
}

func Init(inj do.Injector) {
	do.ProvideValue(inj, &Service{
		inj:     inj,
		log:     logging.New("tiles"),
		cache:   do.MustInvokeAs[tileCache](inj),
		tssf:    do.MustInvokeAs[providerFactory](inj),
		metrics: do.MustInvoke[*measurement.Service](inj),
	})
}

// FTile the tile out of the cache, or fetched from the provider and cached
func (s *Service) FTile(ctx context.Context, tile model.Tile) (io.ReadCloser, error) {
	if !s.tssf.HasProvider(tile.Provider) {
		return nil, provider.ErrNotFound
	}

	cached := s.tssf.IsCached(tile.Provider) && s.cache.IsActive()
	if cached {
		td := s.metrics.Start("getTileFromCache")
		tr, ok := s.cache.Tile(tile)
		td.Stop()
		if ok {
			s.log.Debug(fmt.Sprintf("tile found in cache: %s", tile.String()))
			return tr, nil
		}
	}

	ts, err := do.InvokeNamed[provider.Service](s.inj, tile.Provider)
	if err != nil {
		s.log.Error(fmt.Sprintf("provider error: %v", err))
		return nil, err
	}

	td := s.metrics.Start(fmt.Sprintf("getTileFromProvider:%s", tile.Provider))
	rd, err := ts.Tile(ctx, tile)
	if err != nil {
		td.SetError()
		td.Stop()
		return nil, err
	}
	td.Stop()

	if !cached {
		return rd, nil
	}

	defer rd.Close()
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	sd := s.metrics.Start("saveTileToCache")
	if err := s.cache.Save(tile, bytes.NewReader(data)); err != nil {
		s.log.Error(fmt.Sprintf("error saving tile to cache: %v", err))
	}
	sd.Stop()
	return io.NopCloser(bytes.NewReader(data)), nil
}
