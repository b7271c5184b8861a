package model

import "fmt"

// Tile one slippy map tile of a named provider
type Tile struct {
	Provider string
	Z        int
	X        int
	Y        int
}

func (t *Tile) String() string {
	return fmt.Sprintf("Provider: %s, Z:%d, X:%d, Y:%d", t.Provider, t.Z, t.X, t.Y)
}

// Key the cache key of the tile
func (t *Tile) Key() []byte {
	return []byte(fmt.Sprintf("%s/%d/%d/%d", t.Provider, t.Z, t.X, t.Y))
}

// Valid checks the tile coordinates against the zoom level
func (t *Tile) Valid() bool {
	if t.Z < 0 || t.Z > 30 {
		return false
	}
	max := 1 << t.Z
	return t.X >= 0 && t.X < max && t.Y >= 0 && t.Y < max
}
