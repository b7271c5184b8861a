// Package calibration derives the tile pitch and the bounding plan of a run
// out of positions the operator captured on the map surface.
package calibration

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/willie68/go_mapmosaic/internal/position"
)

var (
	// ErrNonPositiveShift the operator moved the wrong way or the axis convention is inverted
	ErrNonPositiveShift = errors.New("shift must be positive")
	// ErrEmptyPlan the bounding box contains no tile
	ErrEmptyPlan = errors.New("bounding plan is empty")
	// ErrPlanTooLarge the plan has more tiles than allowed, mostly a shift
	// that is far too small
	ErrPlanTooLarge = errors.New("bounding plan too large")
)

// MaxTiles upper bound of the tiles of any plan or grid
const MaxTiles = 1 << 20

// ShiftVector the position delta of one tile step to the right and one tile step up
type ShiftVector struct {
	Right decimal.Decimal `json:"right"`
	Up    decimal.Decimal `json:"up"`
}

// NewShift measures the shift between start and the two reference positions
func NewShift(start, rightRef, upRef position.Position) (ShiftVector, error) {
	s := ShiftVector{
		Right: rightRef.X.Sub(start.X),
		Up:    upRef.Y.Sub(start.Y),
	}
	return s, s.Validate()
}

// Validate both components must be strictly positive
func (s ShiftVector) Validate() error {
	if !s.Right.IsPositive() {
		return errors.Wrapf(ErrNonPositiveShift, "right shift %s", s.Right.String())
	}
	if !s.Up.IsPositive() {
		return errors.Wrapf(ErrNonPositiveShift, "up shift %s", s.Up.String())
	}
	return nil
}

func (s ShiftVector) String() string {
	return fmt.Sprintf("right: %s, up: %s", s.Right.String(), s.Up.String())
}

// BoundingPlan the complete geometry of one capture run
type BoundingPlan struct {
	TopLeft position.Position `json:"topLeft"`
	Width   int               `json:"width"`
	Height  int               `json:"height"`
	Shift   ShiftVector       `json:"shift"`
}

// Validate checks the invariants of the plan
func (b BoundingPlan) Validate() error {
	if err := b.Shift.Validate(); err != nil {
		return err
	}
	if b.Width < 1 || b.Height < 1 {
		return errors.Wrapf(ErrEmptyPlan, "%dx%d tiles", b.Width, b.Height)
	}
	return b.Limit(MaxTiles)
}

// Limit fails with ErrPlanTooLarge if the plan has more than maxTiles tiles.
// maxTiles <= 0 or above MaxTiles means MaxTiles.
func (b BoundingPlan) Limit(maxTiles int) error {
	if maxTiles <= 0 || maxTiles > MaxTiles {
		maxTiles = MaxTiles
	}
	if b.Width > maxTiles || b.Height > maxTiles || b.Width*b.Height > maxTiles {
		return errors.Wrapf(ErrPlanTooLarge, "%dx%d tiles, max is %d", b.Width, b.Height, maxTiles)
	}
	return nil
}

// Tiles number of tiles in the plan
func (b BoundingPlan) Tiles() int {
	return b.Width * b.Height
}

func (b BoundingPlan) String() string {
	return fmt.Sprintf("%dx%d tiles from %s, shift %s", b.Width, b.Height, b.TopLeft, b.Shift)
}

// BoxPlan derives the plan out of the top left and the bottom right corner.
// The tile counts are always rounded up, so the box is never under covered.
func BoxPlan(start, topLeft, downRight position.Position, shift ShiftVector) (BoundingPlan, error) {
	if err := shift.Validate(); err != nil {
		return BoundingPlan{}, err
	}
	w, err := ceilRatio(downRight.X.Sub(topLeft.X), shift.Right)
	if err != nil {
		return BoundingPlan{}, errors.Wrap(err, "width")
	}
	h, err := ceilRatio(topLeft.Y.Sub(downRight.Y), shift.Up)
	if err != nil {
		return BoundingPlan{}, errors.Wrap(err, "height")
	}
	plan := BoundingPlan{
		TopLeft: topLeft.WithZoom(start.Z),
		Width:   w,
		Height:  h,
		Shift:   shift,
	}
	if err := plan.Validate(); err != nil {
		return BoundingPlan{}, err
	}
	return plan, nil
}

// CenterPlan derives the tile counts out of the four boundaries around start.
// The anchor is start itself, which is not the top left corner of the area.
// This mode is kept as an alternative and is not used by default.
func CenterPlan(start, north, south, east, west position.Position, shift ShiftVector) (BoundingPlan, error) {
	if err := shift.Validate(); err != nil {
		return BoundingPlan{}, err
	}
	w, err := ceilRatio(east.X.Sub(west.X), shift.Right)
	if err != nil {
		return BoundingPlan{}, errors.Wrap(err, "width")
	}
	h, err := ceilRatio(north.Y.Sub(south.Y), shift.Up)
	if err != nil {
		return BoundingPlan{}, errors.Wrap(err, "height")
	}
	plan := BoundingPlan{
		TopLeft: start,
		Width:   w,
		Height:  h,
		Shift:   shift,
	}
	if err := plan.Validate(); err != nil {
		return BoundingPlan{}, err
	}
	return plan, nil
}

// ceilRatio ceil(num / den) for den > 0, every value <= 0 maps to 0. Ratios
// above MaxTiles are rejected before they are converted to int.
func ceilRatio(num, den decimal.Decimal) (int, error) {
	if !num.IsPositive() {
		return 0, nil
	}
	q, r := num.QuoRem(den, 0)
	if !r.IsZero() {
		q = q.Add(decimal.NewFromInt(1))
	}
	if q.GreaterThan(decimal.NewFromInt(MaxTiles)) {
		return 0, errors.Wrapf(ErrPlanTooLarge, "%s / %s needs %s tiles", num.String(), den.String(), q.String())
	}
	return int(q.IntPart()), nil
}
