package mosaic

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/willie68/go_mapmosaic/pkg/extstrgutils"
)

// Offset the overlap in pixels trimmed between neighbouring frames
type Offset struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (o Offset) String() string {
	return fmt.Sprintf("%d,%d", o.X, o.Y)
}

// ParseOffset parses "x,y", "x y" or a single value for both axes. An empty
// input is no offset at all.
func ParseOffset(s string) (Offset, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Offset{}, nil
	}
	v, err := extstrgutils.ParseIntList(s)
	if err != nil {
		return Offset{}, errors.Wrap(err, "bad offset")
	}
	switch len(v) {
	case 1:
		return Offset{X: v[0], Y: v[0]}, nil
	case 2:
		return Offset{X: v[0], Y: v[1]}, nil
	default:
		return Offset{}, errors.Errorf("bad offset %q, expecting x,y", s)
	}
}

// Size pixel dimensions of a frame or canvas
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// CanvasSize the size of the composite of width x height frames of the given
// frame size. The canvas shrinks by the offset once per frame.
func CanvasSize(width, height int, frame Size, off Offset) (Size, error) {
	if frame.Width-off.X <= 0 || frame.Height-off.Y <= 0 {
		return Size{}, errors.Wrapf(ErrOffsetTooLarge, "offset %s, frame %s", off, frame)
	}
	return Size{
		Width:  width*frame.Width - off.X*width,
		Height: height*frame.Height - off.Y*height,
	}, nil
}
