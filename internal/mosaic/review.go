package mosaic

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/willie68/go_mapmosaic/internal/logging"
)

// State of the offset review
type State int

const (
	AwaitingOffset State = iota
	Rendered
	Accepted
)

func (s State) String() string {
	switch s {
	case AwaitingOffset:
		return "awaiting offset"
	case Rendered:
		return "rendered"
	case Accepted:
		return "accepted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// EventKind the transitions of the review
type EventKind int

const (
	// EventOffset renders the composite with the event's offset
	EventOffset EventKind = iota
	// EventAdjust asks for another offset
	EventAdjust
	// EventAccept accepts the rendered composite
	EventAccept
)

// Event an operator supplied transition
type Event struct {
	Kind   EventKind
	Offset Offset
}

// ErrInvalidTransition the event is not allowed in the current state
var ErrInvalidTransition = errors.New("invalid transition")

// Renderer builds the composite for an offset
type Renderer interface {
	Assemble(off Offset) (*image.NRGBA, error)
}

// Session the review state machine
//
//	AwaitingOffset --offset--> Rendered --accept--> Accepted
//	      ^                       |
//	      +--------adjust---------+
type Session struct {
	log    *slog.Logger
	r      Renderer
	state  State
	offset Offset
	image  *image.NRGBA
}

// NewSession starts a review awaiting the first offset
func NewSession(r Renderer) *Session {
	return &Session{
		log:   logging.New("review"),
		r:     r,
		state: AwaitingOffset,
	}
}

// State the actual state
func (s *Session) State() State {
	return s.state
}

// Offset the offset of the last rendered composite
func (s *Session) Offset() Offset {
	return s.offset
}

// Image the last rendered composite, nil before the first rendering
func (s *Session) Image() *image.NRGBA {
	return s.image
}

// Fire applies the event. A failed rendering keeps the session awaiting an
// offset.
func (s *Session) Fire(ev Event) error {
	switch {
	case s.state == AwaitingOffset && ev.Kind == EventOffset:
		img, err := s.r.Assemble(ev.Offset)
		if err != nil {
			return err
		}
		s.image = img
		s.offset = ev.Offset
		s.state = Rendered
	case s.state == Rendered && ev.Kind == EventAdjust:
		s.state = AwaitingOffset
	case s.state == Rendered && ev.Kind == EventAccept:
		s.state = Accepted
	default:
		return errors.Wrapf(ErrInvalidTransition, "event %d in state %s", ev.Kind, s.state)
	}
	s.log.Debug(fmt.Sprintf("review is %s, offset %s", s.state, s.offset))
	return nil
}

// Reviewer the operator side of the review
type Reviewer interface {
	// Offset asks for the next offset, the last one is given as hint
	Offset(ctx context.Context, last Offset) (Offset, error)
	// Present shows the rendered composite
	Present(ctx context.Context, img image.Image, off Offset) error
	// Accept asks if the composite is fine
	Accept(ctx context.Context) (bool, error)
}

// Review runs the session until the operator accepts a composite and returns
// it. Offsets that eat up a frame are reported and asked again.
func Review(ctx context.Context, s *Session, rv Reviewer) (*image.NRGBA, error) {
	for s.State() != Accepted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var ev Event
		switch s.State() {
		case AwaitingOffset:
			off, err := rv.Offset(ctx, s.Offset())
			if err != nil {
				return nil, err
			}
			ev = Event{Kind: EventOffset, Offset: off}
		case Rendered:
			if err := rv.Present(ctx, s.Image(), s.Offset()); err != nil {
				return nil, err
			}
			ok, err := rv.Accept(ctx)
			if err != nil {
				return nil, err
			}
			ev = Event{Kind: EventAdjust}
			if ok {
				ev.Kind = EventAccept
			}
		}
		if err := s.Fire(ev); err != nil {
			if errors.Is(err, ErrOffsetTooLarge) {
				s.log.Warn(err.Error())
				continue
			}
			return nil, err
		}
	}
	return s.Image(), nil
}
