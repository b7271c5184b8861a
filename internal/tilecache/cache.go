// Package tilecache caches provider tiles in a badger database
package tilecache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/do/v2"
	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/model"
)

type TileCache interface {
	Has(tile model.Tile) bool
	Tile(tile model.Tile) (io.ReadCloser, bool)
	Save(tile model.Tile, data io.Reader) error
	IsActive() bool
}

type Config struct {
	Path     string `yaml:"path"`
	Active   bool   `yaml:"active"`
	MaxAge   int    `yaml:"maxage"` // in hours
	InMemory bool   `yaml:"inmemory"`
}

type Cache struct {
	log    *slog.Logger
	db     *badger.DB
	active bool
	ttl    time.Duration
	stop   chan struct{}
	once   sync.Once
}

var _ TileCache = (*Cache)(nil)

// Init creates the cache out of the config in the injector and provides it
func Init(inj do.Injector) {
	cfg := do.MustInvoke[*Config](inj)
	c, err := New(*cfg)
	if err != nil {
		logging.New("tilecache").Error(fmt.Sprintf("can't open tile cache, caching disabled: %v", err))
		c = &Cache{log: logging.New("tilecache"), stop: make(chan struct{})}
	}
	do.ProvideValue(inj, c)
}

// New opens the cache database, an inactive config gives a cache that stores nothing
func New(cfg Config) (*Cache, error) {
	c := &Cache{
		log:    logging.New("tilecache"),
		active: cfg.Active,
		stop:   make(chan struct{}),
	}
	if cfg.MaxAge > 0 {
		c.ttl = time.Duration(cfg.MaxAge) * time.Hour
	}
	if !c.active {
		return c, nil
	}
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	c.db = db
	if !cfg.InMemory {
		c.startCacheCleanupJob()
	}
	return c, nil
}

// startCacheCleanupJob expired tiles are dropped by badger, the value log
// has to be collected from time to time
func (c *Cache) startCacheCleanupJob() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				err := c.db.RunValueLogGC(0.5)
				if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
					c.log.Error(fmt.Sprintf("cache cleanup error: %v", err))
				} else {
					c.log.Debug("cache cleanup completed")
				}
			}
		}
	}()
}

func (c *Cache) IsActive() bool {
	return c.active && c.db != nil
}

func (c *Cache) Has(tile model.Tile) bool {
	if !c.IsActive() {
		return false
	}
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(tile.Key())
		return err
	})
	return err == nil
}

func (c *Cache) Tile(tile model.Tile) (io.ReadCloser, bool) {
	if !c.IsActive() {
		return nil, false
	}
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tile.Key())
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.log.Error(fmt.Sprintf("error reading tile %s: %v", tile.String(), err))
		}
		return nil, false
	}
	return io.NopCloser(bytes.NewReader(data)), true
}

func (c *Cache) Save(tile model.Tile, data io.Reader) error {
	if !c.IsActive() {
		return nil
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(tile.Key(), buf)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (c *Cache) Close() error {
	var err error
	c.once.Do(func() {
		close(c.stop)
		if c.db != nil {
			err = c.db.Close()
		}
	})
	return err
}
