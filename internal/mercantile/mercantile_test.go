package mercantile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXyBounds(t *testing.T) {
	ast := assert.New(t)
	b := XyBounds(TileID{X: 0, Y: 0, Z: 0})
	ast.InDelta(-20037508.342789244, b.Left, 1e-6)
	ast.InDelta(20037508.342789244, b.Top, 1e-6)
	ast.InDelta(20037508.342789244, b.Right, 1e-6)
	ast.InDelta(-20037508.342789244, b.Bottom, 1e-6)

	b = XyBounds(TileID{X: 1, Y: 0, Z: 1})
	ast.InDelta(0, b.Left, 1e-6)
	ast.InDelta(0, b.Bottom, 1e-6)
}

func TestULBounds(t *testing.T) {
	ast := assert.New(t)
	b := ULBounds(TileID{X: 0, Y: 0, Z: 1})
	ast.InDelta(-180, b.Left, 1e-9)
	ast.InDelta(0, b.Right, 1e-9)
	ast.InDelta(MaxLatitude, b.Top, 1e-9)
	ast.InDelta(0, b.Bottom, 1e-9)
}

func TestPixels(t *testing.T) {
	ast := assert.New(t)
	x, y := LonLatToPixel(0, 0, 0, 256)
	ast.InDelta(128, x, 1e-9)
	ast.InDelta(128, y, 1e-9)

	x, y = LonLatToPixel(14.42, 50.08, 16, 256)
	lon, lat := PixelToLonLat(x, y, 16, 256)
	ast.InDelta(14.42, lon, 1e-9)
	ast.InDelta(50.08, lat, 1e-9)

	_, y = LonLatToPixel(0, 89.9, 2, 256)
	ast.InDelta(0, y, 1e-6)
}
