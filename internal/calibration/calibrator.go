package calibration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/position"
)

// Mode how the bounding box is determined
type Mode string

const (
	// ModeBox top left and bottom right corner, the default
	ModeBox Mode = "box"
	// ModeCenter four boundaries around the start position, best effort only
	ModeCenter Mode = "center"
)

// ParseMode parses a mode name, empty means box
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBox:
		return ModeBox, nil
	case ModeCenter:
		return ModeCenter, nil
	}
	return "", errors.Errorf("unknown calibration mode %q", s)
}

// Step one capture of the calibration protocol
type Step int

const (
	// StepStart the start position, its zoom level is used for the whole run
	StepStart Step = iota
	// StepRight one tile step east of the start
	StepRight
	// StepUp one tile step north of the start
	StepUp
	// StepTopLeft the top left corner in box mode
	StepTopLeft
	// StepDownRight the bottom right corner in box mode
	StepDownRight
	// StepNorth, StepSouth, StepEast and StepWest the boundaries in center mode
	StepNorth
	StepSouth
	StepEast
	StepWest
)

var stepNames = map[Step]string{
	StepStart:     "start",
	StepRight:     "east shift",
	StepUp:        "north shift",
	StepTopLeft:   "top left corner",
	StepDownRight: "bottom right corner",
	StepNorth:     "the north boundary",
	StepSouth:     "the south boundary",
	StepEast:      "the east boundary",
	StepWest:      "the west boundary",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// anchor where the surface is moved before the operator is asked
type anchor int

const (
	anchorNone anchor = iota
	anchorInitial
	anchorStart
)

type stepDef struct {
	step    Step
	message string
	anchor  anchor
}

var (
	shiftSteps = []stepDef{
		{StepStart, "Get to your desired start location and set your zoom level.", anchorInitial},
		{StepRight, "Move east until only a small part of the area overlaps.", anchorStart},
		{StepUp, "Move north until only a small part of the area overlaps.", anchorStart},
	}
	boxSteps = []stepDef{
		{StepTopLeft, "Move to the top left corner of the area.", anchorStart},
		// the second corner reads the free exploration of the operator
		{StepDownRight, "Move to the bottom right corner of the area.", anchorNone},
	}
	centerSteps = []stepDef{
		{StepNorth, "Move as north as you want the map to go.", anchorStart},
		{StepSouth, "Move as south as you want the map to go.", anchorStart},
		{StepEast, "Move as east as you want the map to go.", anchorStart},
		{StepWest, "Move as west as you want the map to go.", anchorStart},
	}
)

// Surface the part of a map surface the calibration needs
type Surface interface {
	Navigate(ctx context.Context, pos position.Position) error
	Current(ctx context.Context) (position.Position, error)
}

// Operator asks the human to adjust the view. The answer is either empty
// (capture the view as it is) or a navigation target to jump to first.
type Operator interface {
	Ask(ctx context.Context, message, action string) (string, error)
}

// Calibrator runs the interactive calibration protocol
type Calibrator struct {
	log      *slog.Logger
	surface  Surface
	operator Operator
	initial  position.Position
	maxTiles int
	captured map[Step]position.Position
}

// New creates a calibrator, initial is the position shown for the start step
func New(s Surface, o Operator, initial position.Position) *Calibrator {
	return &Calibrator{
		log:      logging.New("calibration"),
		surface:  s,
		operator: o,
		initial:  initial,
		maxTiles: MaxTiles,
		captured: make(map[Step]position.Position),
	}
}

// WithMaxTiles limits the size of the plan, values <= 0 keep MaxTiles
func (c *Calibrator) WithMaxTiles(n int) *Calibrator {
	if n > 0 && n < MaxTiles {
		c.maxTiles = n
	}
	return c
}

// Captured returns a captured step position
func (c *Calibrator) Captured(s Step) (position.Position, bool) {
	p, ok := c.captured[s]
	return p, ok
}

// Run executes the protocol for the given mode and returns the plan. Any
// error aborts the calibration before anything is captured.
func (c *Calibrator) Run(ctx context.Context, mode Mode) (BoundingPlan, error) {
	if err := c.runSteps(ctx, shiftSteps); err != nil {
		return BoundingPlan{}, err
	}
	start := c.captured[StepStart]
	shift, err := NewShift(start, c.captured[StepRight], c.captured[StepUp])
	if err != nil {
		return BoundingPlan{}, err
	}
	c.log.Info(fmt.Sprintf("using east shift of %s and north shift of %s", shift.Right, shift.Up))

	var plan BoundingPlan
	switch mode {
	case ModeCenter:
		c.log.Warn("center mode does not compute the top left anchor, the plan starts at the start position")
		if err := c.runSteps(ctx, centerSteps); err != nil {
			return BoundingPlan{}, err
		}
		plan, err = CenterPlan(start, c.captured[StepNorth], c.captured[StepSouth], c.captured[StepEast], c.captured[StepWest], shift)
	default:
		if err := c.runSteps(ctx, boxSteps); err != nil {
			return BoundingPlan{}, err
		}
		plan, err = BoxPlan(start, c.captured[StepTopLeft], c.captured[StepDownRight], shift)
	}
	if err != nil {
		return BoundingPlan{}, err
	}
	if err := plan.Limit(c.maxTiles); err != nil {
		return BoundingPlan{}, err
	}
	c.log.Info("calibration done", "plan", plan.String())
	return plan, nil
}

func (c *Calibrator) runSteps(ctx context.Context, steps []stepDef) error {
	for _, sd := range steps {
		p, err := c.capture(ctx, sd)
		if err != nil {
			return errors.Wrapf(err, "calibration step %s", sd.step)
		}
		c.captured[sd.step] = p
	}
	return nil
}

func (c *Calibrator) capture(ctx context.Context, sd stepDef) (position.Position, error) {
	switch sd.anchor {
	case anchorInitial:
		if err := c.surface.Navigate(ctx, c.initial); err != nil {
			return position.Position{}, err
		}
	case anchorStart:
		if err := c.surface.Navigate(ctx, c.captured[StepStart]); err != nil {
			return position.Position{}, err
		}
	}
	answer, err := c.operator.Ask(ctx, sd.message, sd.step.String())
	if err != nil {
		return position.Position{}, err
	}
	if answer = strings.TrimSpace(answer); answer != "" {
		cur, err := c.surface.Current(ctx)
		if err != nil {
			return position.Position{}, err
		}
		jump, err := position.Decode(answer, cur)
		if err != nil {
			c.log.Warn(err.Error())
		}
		if err := c.surface.Navigate(ctx, jump); err != nil {
			return position.Position{}, err
		}
	}
	p, err := c.surface.Current(ctx)
	if err != nil {
		return position.Position{}, err
	}
	c.log.Info(fmt.Sprintf("captured %s: %s", sd.step, p))
	return p, nil
}
