// Package mosaic stitches the captured frames of a grid into one composite
// image and runs the offset review with the operator.
package mosaic

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"

	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"

	"github.com/willie68/go_mapmosaic/internal/grid"
	"github.com/willie68/go_mapmosaic/internal/logging"
)

var (
	// ErrTileSizeMismatch a frame differs in size from the first frame
	ErrTileSizeMismatch = errors.New("frame size mismatch")
	// ErrIncompleteGrid the grid has cells without a frame
	ErrIncompleteGrid = errors.New("grid is incomplete")
	// ErrOffsetTooLarge the offset eats up a whole frame
	ErrOffsetTooLarge = errors.New("offset too large")
)

// FrameSource opens stored frames by their reference
type FrameSource interface {
	Open(ref string) (io.ReadCloser, error)
}

// Assembler builds composites out of the frames of a complete grid. Frames
// are decoded once, all offsets are rendered from the same frames.
type Assembler struct {
	log    *slog.Logger
	src    FrameSource
	grid   *grid.TileGrid
	frames []image.Image
	size   Size
}

// NewAssembler loads all frames of the grid and checks their sizes. Nothing
// is pasted when a frame is missing or differs in size.
func NewAssembler(src FrameSource, g *grid.TileGrid) (*Assembler, error) {
	a := &Assembler{
		log:  logging.New("mosaic"),
		src:  src,
		grid: g,
	}
	if err := a.load(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Assembler) load() error {
	if a.grid.Width() == 0 || a.grid.Height() == 0 {
		return errors.Wrap(ErrIncompleteGrid, "empty grid")
	}
	if missing := a.grid.Missing(); len(missing) > 0 {
		return errors.Wrapf(ErrIncompleteGrid, "%d frames missing, first %s", len(missing), missing[0])
	}
	a.frames = make([]image.Image, 0, a.grid.Width()*a.grid.Height())
	for c, ref := range a.grid.All() {
		img, err := a.decode(ref)
		if err != nil {
			return errors.Wrapf(err, "frame %s", c)
		}
		b := img.Bounds()
		s := Size{Width: b.Dx(), Height: b.Dy()}
		if len(a.frames) == 0 {
			a.size = s
		} else if s != a.size {
			return errors.Wrapf(ErrTileSizeMismatch, "frame %s is %s, expected %s", c, s, a.size)
		}
		a.frames = append(a.frames, img)
	}
	a.log.Debug(fmt.Sprintf("loaded %d frames of %s", len(a.frames), a.size))
	return nil
}

func (a *Assembler) decode(ref string) (image.Image, error) {
	r, err := a.src.Open(ref)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "can't decode %s", ref)
	}
	return img, nil
}

// FrameSize the common size of all frames
func (a *Assembler) FrameSize() Size {
	return a.size
}

// CanvasSize the composite size for the offset
func (a *Assembler) CanvasSize(off Offset) (Size, error) {
	return CanvasSize(a.grid.Width(), a.grid.Height(), a.size, off)
}

// Assemble pastes all frames in row major order, frame (row, col) goes to
// (col*(fw-ox), row*(fh-oy)). Later frames overwrite earlier ones.
func (a *Assembler) Assemble(off Offset) (*image.NRGBA, error) {
	cs, err := a.CanvasSize(off)
	if err != nil {
		return nil, err
	}
	canvas := image.NewNRGBA(image.Rect(0, 0, cs.Width, cs.Height))
	stepX := a.size.Width - off.X
	stepY := a.size.Height - off.Y
	w := a.grid.Width()
	for i, img := range a.frames {
		row, col := i/w, i%w
		at := image.Pt(col*stepX, row*stepY)
		r := image.Rectangle{Min: at, Max: at.Add(image.Pt(a.size.Width, a.size.Height))}
		draw.Draw(canvas, r, img, img.Bounds().Min, draw.Src)
	}
	a.log.Info(fmt.Sprintf("assembled %dx%d frames with offset %s into %s", w, a.grid.Height(), off, cs))
	return canvas, nil
}
