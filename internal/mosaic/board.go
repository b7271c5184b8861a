package mosaic

import (
	"bytes"
	"image"
	"image/png"
	"sync"
	"time"

	"github.com/willie68/go_mapmosaic/internal/grid"
)

// Board the latest state of a run for the status server
type Board struct {
	mu      sync.RWMutex
	preview []byte
	offset  Offset
	updated time.Time
	grid    *grid.TileGrid
}

// NewBoard creates an empty board
func NewBoard() *Board {
	return &Board{}
}

// SetGrid sets the grid of the actual run
func (b *Board) SetGrid(g *grid.TileGrid) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.grid = g
}

// Grid the grid of the actual run, nil if there is none yet
func (b *Board) Grid() *grid.TileGrid {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.grid
}

// SetPreview stores the png encoded preview of a rendered composite
func (b *Board) SetPreview(img image.Image, off Offset) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.preview = buf.Bytes()
	b.offset = off
	b.updated = time.Now()
	return nil
}

// Preview the png of the latest preview, false if nothing is rendered yet
func (b *Board) Preview() ([]byte, Offset, time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.preview == nil {
		return nil, Offset{}, time.Time{}, false
	}
	return b.preview, b.offset, b.updated, true
}
