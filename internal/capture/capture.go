// Package capture drives the map surface over the grid of a bounding plan and
// stores one frame per cell.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/willie68/go_mapmosaic/internal/calibration"
	"github.com/willie68/go_mapmosaic/internal/grid"
	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/position"
	"github.com/willie68/go_mapmosaic/internal/utils/measurement"
)

var (
	// ErrNoPlan a single frame was requested before a plan was set
	ErrNoPlan = errors.New("no bounding plan")
)

// Rect a crop rectangle in pixels
type Rect struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config of the capture run. A frame not ready after ReadyTimeout is taken
// anyway after GraceDelay, Crop cuts every snapshot down to the rectangle.
type Config struct {
	ReadyTimeout time.Duration `yaml:"readytimeout"`
	GraceDelay   time.Duration `yaml:"gracedelay"`
	Crop         *Rect         `yaml:"crop"`
	MaxTiles     int           `yaml:"maxtiles"` // largest plan accepted by the calibration
}

// Defaults fills unset values
func (c *Config) Defaults() {
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = 10 * time.Second
	}
	if c.GraceDelay <= 0 {
		c.GraceDelay = 5 * time.Second
	}
	if c.MaxTiles <= 0 || c.MaxTiles > calibration.MaxTiles {
		c.MaxTiles = 10000
	}
}

// Surface the part of the map surface needed to capture frames
type Surface interface {
	Navigate(ctx context.Context, pos position.Position) error
	WaitForReady(ctx context.Context, timeout time.Duration) (bool, error)
	HideInteractive(ctx context.Context) error
	PrepareForPosition(ctx context.Context) error
	PrepareForScreenshot(ctx context.Context) error
	Snapshot(ctx context.Context) ([]byte, error)
}

// FrameStore where the frames go
type FrameStore interface {
	Save(c grid.Cell, data io.Reader) (string, error)
	Resume(width, height int) (*grid.TileGrid, []error)
	Clear() error
}

// CellSelector asks the operator for frames to take again, an empty answer
// ends the retake loop
type CellSelector interface {
	RetakeCells(ctx context.Context, g *grid.TileGrid) ([]grid.Cell, error)
}

// Orchestrator the single owner of the surface while capturing
type Orchestrator struct {
	log     *slog.Logger
	surface Surface
	store   FrameStore
	cfg     Config
	metrics *measurement.Service
	plan    *calibration.BoundingPlan
	grid    *grid.TileGrid
	onGrid  func(g *grid.TileGrid)
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates the orchestrator, metrics may be nil
func New(s Surface, store FrameStore, cfg Config, metrics *measurement.Service) *Orchestrator {
	cfg.Defaults()
	if metrics == nil {
		metrics = measurement.New(false)
	}
	return &Orchestrator{
		log:     logging.New("capture"),
		surface: s,
		store:   store,
		cfg:     cfg,
		metrics: metrics,
		sleep:   sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// OnGrid registers a listener called whenever a new grid is planned, before
// the first frame is captured
func (o *Orchestrator) OnGrid(f func(g *grid.TileGrid)) {
	o.onGrid = f
}

func (o *Orchestrator) setGrid(plan calibration.BoundingPlan, g *grid.TileGrid) {
	o.plan = &plan
	o.grid = g
	if o.onGrid != nil {
		o.onGrid(g)
	}
}

// Grid the grid of the actual run, nil before a plan is set
func (o *Orchestrator) Grid() *grid.TileGrid {
	return o.grid
}

// CaptureAll starts a fresh run: the store is cleared and every cell is
// captured in row major order
func (o *Orchestrator) CaptureAll(ctx context.Context, plan calibration.BoundingPlan) (*grid.TileGrid, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if err := o.store.Clear(); err != nil {
		return nil, errors.Wrap(err, "can't clear frame store")
	}
	g, err := grid.ForPlan(plan)
	if err != nil {
		return nil, err
	}
	o.setGrid(plan, g)
	o.log.Info(fmt.Sprintf("capturing %d frames: %s", plan.Tiles(), plan))
	if err := o.captureCells(ctx, o.grid.Missing()); err != nil {
		return o.grid, err
	}
	return o.grid, nil
}

// Resume continues a run: stored frames are reused, only missing cells are
// captured. Replanning gives the same geometry, so the frames fit.
func (o *Orchestrator) Resume(ctx context.Context, plan calibration.BoundingPlan) (*grid.TileGrid, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	g, errs := o.store.Resume(plan.Width, plan.Height)
	if g == nil {
		return nil, errors.Wrap(errs[len(errs)-1], "can't resume frames")
	}
	o.setGrid(plan, g)
	missing := g.Missing()
	o.log.Info(fmt.Sprintf("resuming, %d of %d frames missing", len(missing), plan.Tiles()))
	if err := o.captureCells(ctx, missing); err != nil {
		return o.grid, err
	}
	return o.grid, nil
}

// CaptureOne captures the frame of a single cell, returns the frame reference
func (o *Orchestrator) CaptureOne(ctx context.Context, c grid.Cell) (string, error) {
	if o.plan == nil || o.grid == nil {
		return "", ErrNoPlan
	}
	if !o.grid.Contains(c) {
		return "", errors.Wrapf(grid.ErrOutOfRange, "cell %s", c)
	}
	td := o.metrics.Start("captureFrame")
	defer td.Stop()

	pos := grid.Position(*o.plan, c.Row, c.Col)
	if err := o.surface.PrepareForPosition(ctx); err != nil {
		o.log.Warn(fmt.Sprintf("prepare for position failed: %v", err))
	}
	if err := o.surface.Navigate(ctx, pos); err != nil {
		td.SetError()
		return "", errors.Wrapf(err, "frame %s", c)
	}
	ready, err := o.surface.WaitForReady(ctx, o.cfg.ReadyTimeout)
	if err != nil && ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil || !ready {
		o.log.Warn(fmt.Sprintf("frame %s not ready after %s, continuing in %s", c, o.cfg.ReadyTimeout, o.cfg.GraceDelay), "error", err)
		if err := o.sleep(ctx, o.cfg.GraceDelay); err != nil {
			return "", err
		}
	}
	if err := o.surface.HideInteractive(ctx); err != nil {
		o.log.Warn(fmt.Sprintf("hiding interactive elements failed: %v", err))
	}
	if err := o.surface.PrepareForScreenshot(ctx); err != nil {
		o.log.Warn(fmt.Sprintf("prepare for screenshot failed: %v", err))
	}
	data, err := o.surface.Snapshot(ctx)
	if err != nil {
		td.SetError()
		return "", errors.Wrapf(err, "frame %s", c)
	}
	if o.cfg.Crop != nil {
		data, err = crop(data, *o.cfg.Crop)
		if err != nil {
			td.SetError()
			return "", errors.Wrapf(err, "frame %s", c)
		}
	}
	ref, err := o.store.Save(c, bytes.NewReader(data))
	if err != nil {
		td.SetError()
		return "", err
	}
	if err := o.grid.Set(c, ref); err != nil {
		return "", err
	}
	o.log.Info(fmt.Sprintf("captured frame %s at %s", c, pos))
	return ref, nil
}

// Retake captures the given cells again, the stored frames are replaced.
// Cells outside of the grid are reported and skipped.
func (o *Orchestrator) Retake(ctx context.Context, cells []grid.Cell) error {
	if o.plan == nil || o.grid == nil {
		return ErrNoPlan
	}
	valid := make([]grid.Cell, 0, len(cells))
	for _, c := range cells {
		if !o.grid.Contains(c) {
			o.log.Warn(fmt.Sprintf("frame %s is not part of the %dx%d grid, skipped", c, o.grid.Width(), o.grid.Height()))
			continue
		}
		valid = append(valid, c)
	}
	return o.captureCells(ctx, valid)
}

// RetakeLoop asks the operator for frames to retake until the answer is empty
func (o *Orchestrator) RetakeLoop(ctx context.Context, sel CellSelector) error {
	for {
		cells, err := sel.RetakeCells(ctx, o.grid)
		if err != nil {
			return err
		}
		if len(cells) == 0 {
			return nil
		}
		if err := o.Retake(ctx, cells); err != nil {
			return err
		}
	}
}

func (o *Orchestrator) captureCells(ctx context.Context, cells []grid.Cell) error {
	for i, c := range cells {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.log.Debug(fmt.Sprintf("frame %d of %d", i+1, len(cells)))
		if _, err := o.CaptureOne(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// crop cuts the rectangle out of a png snapshot
func crop(data []byte, r Rect) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "can't decode snapshot")
	}
	rect := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).Add(img.Bounds().Min).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, errors.Errorf("crop %v outside of snapshot %v", r, img.Bounds())
	}
	dst := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
