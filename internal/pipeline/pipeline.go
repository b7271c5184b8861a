// Package pipeline runs a whole mapping session: calibration, capture,
// retakes, offset review and saving the mosaic.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/samber/do/v2"

	"github.com/willie68/go_mapmosaic/internal/calibration"
	"github.com/willie68/go_mapmosaic/internal/capture"
	"github.com/willie68/go_mapmosaic/internal/framestore"
	"github.com/willie68/go_mapmosaic/internal/grid"
	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/mosaic"
	"github.com/willie68/go_mapmosaic/internal/prefetch"
	"github.com/willie68/go_mapmosaic/internal/surface"
	"github.com/willie68/go_mapmosaic/internal/utils/measurement"
)

// Operator everything the human is asked during a run
type Operator interface {
	calibration.Operator
	capture.CellSelector
	mosaic.Reviewer
}

// Options of a single run
type Options struct {
	Mode calibration.Mode
	// Resume keeps stored frames and captures only the missing ones
	Resume bool
	// AssembleOnly builds the mosaic out of stored frames, no surface is used
	AssembleOnly bool
}

// Pipeline one mapping session on the services of the injector
type Pipeline struct {
	log     *slog.Logger
	inj     do.Injector
	op      Operator
	store   *framestore.Store
	board   *mosaic.Board
	mcfg    mosaic.Config
	metrics *measurement.Service
}

// New resolves the services of the run out of the injector
func New(inj do.Injector, op Operator) *Pipeline {
	mcfg := do.MustInvoke[*mosaic.Config](inj)
	mcfg.Defaults()
	return &Pipeline{
		log:     logging.New("pipeline"),
		inj:     inj,
		op:      op,
		store:   do.MustInvoke[*framestore.Store](inj),
		board:   do.MustInvoke[*mosaic.Board](inj),
		mcfg:    *mcfg,
		metrics: do.MustInvoke[*measurement.Service](inj),
	}
}

// Run executes the run, the mosaic is written only after the operator
// accepted it. Frames stay on disk on every error.
func (p *Pipeline) Run(ctx context.Context, opts Options) error {
	var g *grid.TileGrid
	if opts.AssembleOnly {
		var errs []error
		g, errs = p.store.ResumeAll()
		if g == nil {
			return errors.Wrap(errs[len(errs)-1], "can't read stored frames")
		}
		if len(errs) > 0 {
			p.log.Warn(fmt.Sprintf("%d files in %s skipped", len(errs), p.store.Dir()))
		}
		p.board.SetGrid(g)
	} else {
		var err error
		g, err = p.capture(ctx, opts)
		if err != nil {
			return err
		}
	}

	img, err := p.review(ctx, g)
	if err != nil {
		return err
	}
	if err := mosaic.Save(img, p.mcfg.Output); err != nil {
		return err
	}
	b := img.Bounds()
	p.log.Info(fmt.Sprintf("map of %dx%d pixel saved to %s", b.Dx(), b.Dy(), p.mcfg.Output))
	return nil
}

func (p *Pipeline) capture(ctx context.Context, opts Options) (*grid.TileGrid, error) {
	s, err := do.Invoke[surface.Surface](p.inj)
	if err != nil {
		return nil, errors.Wrap(err, "no capture surface")
	}
	scfg := do.MustInvoke[*surface.Config](p.inj)
	ccfg := do.MustInvoke[*capture.Config](p.inj)
	cal := calibration.New(s, p.op, scfg.StartPosition()).WithMaxTiles(ccfg.MaxTiles)
	plan, err := cal.Run(ctx, opts.Mode)
	if err != nil {
		return nil, err
	}

	if pf, err := do.Invoke[*prefetch.Prefetcher](p.inj); err == nil {
		if _, err := pf.Prefetch(ctx, plan); err != nil {
			return nil, err
		}
	}

	orch := capture.New(s, p.store, *ccfg, p.metrics)
	orch.OnGrid(p.board.SetGrid)
	if opts.Resume {
		_, err = orch.Resume(ctx, plan)
	} else {
		_, err = orch.CaptureAll(ctx, plan)
	}
	if err != nil {
		return nil, err
	}
	if err := orch.RetakeLoop(ctx, p.op); err != nil {
		return nil, err
	}
	return orch.Grid(), nil
}

func (p *Pipeline) review(ctx context.Context, g *grid.TileGrid) (image.Image, error) {
	asm, err := mosaic.NewAssembler(p.store, g)
	if err != nil {
		return nil, err
	}
	p.log.Info(fmt.Sprintf("%dx%d frames of %s ready", g.Width(), g.Height(), asm.FrameSize()))
	return mosaic.Review(ctx, mosaic.NewSession(asm), p.op)
}
