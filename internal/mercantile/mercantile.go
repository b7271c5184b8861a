// Package mercantile spherical mercator helpers for slippy map tiles
package mercantile

import "math"

const (
	earthRadius = 6378137.0
	// MaxLatitude the web mercator latitude limit
	MaxLatitude = 85.0511287798066
)

// TileID a tile in x/y/z notation, y counting from north
type TileID struct {
	X int
	Y int
	Z int
}

// Bbox a bounding box, either in meters (EPSG:3857) or in degrees
type Bbox struct {
	Left   float64
	Bottom float64
	Right  float64
	Top    float64
}

// XyBounds bounds of the tile in web mercator meters
func XyBounds(t TileID) Bbox {
	size := 2 * math.Pi * earthRadius / float64(uint64(1)<<t.Z)
	left := -math.Pi*earthRadius + float64(t.X)*size
	top := math.Pi*earthRadius - float64(t.Y)*size
	return Bbox{Left: left, Bottom: top - size, Right: left + size, Top: top}
}

// ULBounds bounds of the tile in longitude/latitude degrees
func ULBounds(t TileID) Bbox {
	n := float64(uint64(1) << t.Z)
	return Bbox{
		Left:   float64(t.X)/n*360 - 180,
		Right:  float64(t.X+1)/n*360 - 180,
		Top:    tileLat(float64(t.Y), n),
		Bottom: tileLat(float64(t.Y+1), n),
	}
}

func tileLat(y, n float64) float64 {
	return math.Atan(math.Sinh(math.Pi*(1-2*y/n))) * 180 / math.Pi
}

// LonLatToPixel global pixel coordinates of a point at zoom z
func LonLatToPixel(lon, lat float64, z, tileSize int) (float64, float64) {
	n := float64(uint64(1)<<z) * float64(tileSize)
	lat = math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
	s := math.Sin(lat * math.Pi / 180)
	x := (lon + 180) / 360 * n
	y := (0.5 - math.Log((1+s)/(1-s))/(4*math.Pi)) * n
	return x, y
}

// PixelToLonLat inverse of LonLatToPixel
func PixelToLonLat(px, py float64, z, tileSize int) (float64, float64) {
	n := float64(uint64(1)<<z) * float64(tileSize)
	lon := px/n*360 - 180
	lat := math.Atan(math.Sinh(math.Pi*(1-2*py/n))) * 180 / math.Pi
	return lon, lat
}
