// Package operator is the console side of all interactive steps: calibration
// prompts, the retake selection and the offset review.
package operator

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/willie68/go_mapmosaic/internal/grid"
	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/mosaic"
)

// Console asks the operator on a terminal
type Console struct {
	log   *slog.Logger
	out   io.Writer
	lines chan string
	errs  chan error
	cfg   mosaic.Config
	board *mosaic.Board
}

// New creates a console reading answers line by line from in. Rendered
// previews are written to the preview file of cfg and put on the board, board
// may be nil.
func New(in io.Reader, out io.Writer, cfg mosaic.Config, board *mosaic.Board) *Console {
	cfg.Defaults()
	c := &Console{
		log:   logging.New("operator"),
		out:   out,
		lines: make(chan string),
		errs:  make(chan error, 1),
		cfg:   cfg,
		board: board,
	}
	go c.read(in)
	return c
}

func (c *Console) read(in io.Reader) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		c.lines <- sc.Text()
	}
	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	c.errs <- err
	close(c.lines)
}

func (c *Console) prompt(ctx context.Context, format string, args ...any) (string, error) {
	fmt.Fprintf(c.out, format, args...)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-c.lines:
		if !ok {
			return "", errors.Wrap(io.EOF, "operator input closed")
		}
		return strings.TrimSpace(l), nil
	case err := <-c.errs:
		c.errs <- err
		return "", errors.Wrap(err, "operator input closed")
	}
}

// Ask shows the calibration message and waits for enter or a target to jump to
func (c *Console) Ask(ctx context.Context, message, action string) (string, error) {
	return c.prompt(ctx, "%s\npress enter to capture the %s, or paste a target to jump to: ", message, action)
}

// RetakeCells asks for frames to retake like "0-1, 2-3", empty to finish.
// Bad entries are reported and skipped.
func (c *Console) RetakeCells(ctx context.Context, g *grid.TileGrid) ([]grid.Cell, error) {
	for {
		answer, err := c.prompt(ctx, "frames to retake as row-col of the %dx%d grid, enter to continue: ", g.Width(), g.Height())
		if err != nil {
			return nil, err
		}
		if answer == "" {
			return nil, nil
		}
		cells, errs := grid.ParseCells(answer)
		for _, err := range errs {
			fmt.Fprintf(c.out, "skipping: %v\n", err)
		}
		if len(cells) > 0 {
			return cells, nil
		}
	}
}

// Offset asks for the overlap offset until it parses
func (c *Console) Offset(ctx context.Context, last mosaic.Offset) (mosaic.Offset, error) {
	for {
		answer, err := c.prompt(ctx, "offset as x,y (last %s), enter for none: ", last)
		if err != nil {
			return mosaic.Offset{}, err
		}
		off, err := mosaic.ParseOffset(answer)
		if err != nil {
			fmt.Fprintf(c.out, "%v\n", err)
			continue
		}
		return off, nil
	}
}

// Present writes the scaled down composite to the preview file and the board
func (c *Console) Present(_ context.Context, img image.Image, off mosaic.Offset) error {
	p := mosaic.Preview(img, c.cfg.PreviewWidth)
	if err := mosaic.Save(p, c.cfg.Preview); err != nil {
		return err
	}
	if c.board != nil {
		if err := c.board.SetPreview(p, off); err != nil {
			c.log.Warn(fmt.Sprintf("can't update preview board: %v", err))
		}
	}
	b := img.Bounds()
	fmt.Fprintf(c.out, "map of %dx%d pixel with offset %s, preview in %s\n", b.Dx(), b.Dy(), off, c.cfg.Preview)
	return nil
}

// Accept asks if the composite is fine
func (c *Console) Accept(ctx context.Context) (bool, error) {
	answer, err := c.prompt(ctx, "save the map? [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes", "j", "ja":
		return true, nil
	}
	return false, nil
}
