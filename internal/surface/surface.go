// Package surface the map surfaces frames are captured from. A surface shows
// the map centered at a position and can take a screenshot of it.
package surface

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/samber/do/v2"
	"github.com/willie68/go_mapmosaic/configs"
	"github.com/willie68/go_mapmosaic/internal/model"
	"github.com/willie68/go_mapmosaic/internal/position"
)

const (
	TypeBrowser = "browser"
	TypeTiles   = "tiles"
)

// Surface one map surface session
type Surface interface {
	// Navigate shows the map centered at pos
	Navigate(ctx context.Context, pos position.Position) error
	// Current the position the surface shows right now
	Current(ctx context.Context) (position.Position, error)
	// WaitForReady waits until the map is rendered, false on timeout
	WaitForReady(ctx context.Context, timeout time.Duration) (bool, error)
	// HideInteractive removes controls, panels and popups from the view
	HideInteractive(ctx context.Context) error
	// PrepareForPosition is called before the surface is moved for a frame
	PrepareForPosition(ctx context.Context) error
	// PrepareForScreenshot is called right before the snapshot
	PrepareForScreenshot(ctx context.Context) error
	// Snapshot a PNG of the current view
	Snapshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Config of the capture surface
type Config struct {
	Type          string        `yaml:"type"` // browser, tiles
	BaseURL       string        `yaml:"baseurl"`
	Start         string        `yaml:"start"` // e.g. x=14.42&y=50.08&z=16
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	Headless      bool          `yaml:"headless"`
	ReadySelector string        `yaml:"readyselector"`
	HideSelectors []string      `yaml:"hideselectors"`
	Settle        time.Duration `yaml:"settle"`
	Provider      string        `yaml:"provider"` // tile provider of the tiles surface
	TileSize      int           `yaml:"tilesize"`
	Prefetch      int           `yaml:"prefetch"` // parallel workers warming the tile cache, 0 disables
}

// Defaults fills unset values
func (c *Config) Defaults() {
	if c.Type == "" {
		c.Type = TypeBrowser
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://mapy.cz/turisticka?l=0"
	}
	if c.Width <= 0 {
		c.Width = 1920
	}
	if c.Height <= 0 {
		c.Height = 1080
	}
	if c.TileSize <= 0 {
		c.TileSize = 256
	}
	if len(c.HideSelectors) == 0 {
		c.HideSelectors = configs.HideSelectors()
	}
}

// StartPosition the position shown when calibration starts
func (c *Config) StartPosition() position.Position {
	p, _ := position.Decode(c.Start, position.Default())
	return p
}

type tileFetcher interface {
	FTile(ctx context.Context, tile model.Tile) (io.ReadCloser, error)
}

// Init opens the configured surface and provides it as Surface
func Init(inj do.Injector) error {
	cfg := do.MustInvoke[*Config](inj)
	cfg.Defaults()
	var s Surface
	switch cfg.Type {
	case TypeBrowser:
		b, err := NewBrowser(*cfg)
		if err != nil {
			return err
		}
		s = b
	case TypeTiles:
		t, err := NewTiles(*cfg, do.MustInvokeAs[tileFetcher](inj))
		if err != nil {
			return err
		}
		s = t
	default:
		return fmt.Errorf("unknown surface type: %s", cfg.Type)
	}
	do.ProvideValue(inj, s)
	return nil
}
