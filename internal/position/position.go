// Package position holds the geographic position of a map view and the codec
// between a position and the navigation target of a map surface.
package position

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	// DefaultZoom zoom level used when nothing else is known
	DefaultZoom = 16
)

var (
	// ErrBadField a single field of a navigation target could not be parsed
	ErrBadField = errors.New("malformed position field")
)

// Position a point on the map surface. X and Y are in the native units of the
// surface, Z is the discrete zoom level.
type Position struct {
	X decimal.Decimal
	Y decimal.Decimal
	Z int
}

// Default the start position used before the operator navigated anywhere
func Default() Position {
	return Position{
		X: decimal.NewFromInt(15),
		Y: decimal.NewFromInt(50),
		Z: DefaultZoom,
	}
}

// New creates a position
func New(x, y decimal.Decimal, z int) Position {
	return Position{X: x, Y: y, Z: z}
}

// FromStrings creates a position out of decimal strings
func FromStrings(x, y string, z int) (Position, error) {
	dx, err := decimal.NewFromString(x)
	if err != nil {
		return Position{}, errors.Wrapf(err, "x: %q", x)
	}
	dy, err := decimal.NewFromString(y)
	if err != nil {
		return Position{}, errors.Wrapf(err, "y: %q", y)
	}
	if z < 0 {
		return Position{}, errors.Errorf("negative zoom level %d", z)
	}
	return Position{X: dx, Y: dy, Z: z}, nil
}

// Add adds x and y of o, the zoom level is kept
func (p Position) Add(o Position) Position {
	return Position{X: p.X.Add(o.X), Y: p.Y.Add(o.Y), Z: p.Z}
}

// Sub subtracts x and y of o, the zoom level is kept
func (p Position) Sub(o Position) Position {
	return Position{X: p.X.Sub(o.X), Y: p.Y.Sub(o.Y), Z: p.Z}
}

// Offset moves the position by dx and dy
func (p Position) Offset(dx, dy decimal.Decimal) Position {
	return Position{X: p.X.Add(dx), Y: p.Y.Add(dy), Z: p.Z}
}

// WithZoom returns the same point with another zoom level
func (p Position) WithZoom(z int) Position {
	p.Z = z
	return p
}

// Equal compares the numeric values, 1.50 equals 1.5
func (p Position) Equal(o Position) bool {
	return p.Z == o.Z && p.X.Equal(o.X) && p.Y.Equal(o.Y)
}

func (p Position) String() string {
	return fmt.Sprintf("x: %s, y: %s, z: %d", p.X.String(), p.Y.String(), p.Z)
}
