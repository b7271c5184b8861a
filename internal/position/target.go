package position

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	keyX = "x"
	keyY = "y"
	keyZ = "z"
)

// FieldError one malformed key of a navigation target
type FieldError struct {
	Key   string
	Value string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("failed to parse parameter %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e FieldError) Unwrap() error {
	return ErrBadField
}

// ParseError collects all malformed fields of one target. The position
// returned together with it is still usable.
type ParseError struct {
	Target string
	Fields []FieldError
}

func (e *ParseError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("target %q: %s", e.Target, strings.Join(parts, "; "))
}

func (e *ParseError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields))
	for _, f := range e.Fields {
		errs = append(errs, f)
	}
	return errs
}

// Codec converts positions to navigation targets of one surface and back
type Codec struct {
	base *url.URL
}

// NewCodec creates a codec for the given base url, e.g. https://mapy.cz/turisticka?l=0
func NewCodec(base string) (*Codec, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid base url %q", base)
	}
	return &Codec{base: u}, nil
}

// Encode builds the navigation target for p. Other query parameters of the
// base url are kept.
func (c *Codec) Encode(p Position) string {
	u := *c.base
	q := u.Query()
	q.Set(keyX, p.X.String())
	q.Set(keyY, p.Y.String())
	q.Set(keyZ, strconv.Itoa(p.Z))
	u.RawQuery = q.Encode()
	return u.String()
}

// Decode reads x, y and z out of a target. The target may be a full url or a
// bare query like "x=1&y=2&z=3". Unknown keys are ignored. A malformed field
// keeps the value of prior and is reported in the returned *ParseError, the
// returned position is valid in any case.
func (c *Codec) Decode(target string, prior Position) (Position, error) {
	return Decode(target, prior)
}

// Decode see Codec.Decode
func Decode(target string, prior Position) (Position, error) {
	pos := prior
	query := target
	if i := strings.Index(target, "?"); i >= 0 {
		query = target[i+1:]
	} else if !strings.Contains(target, "=") {
		return pos, nil
	}
	if i := strings.Index(query, "#"); i >= 0 {
		query = query[:i]
	}

	var fields []FieldError
	for _, param := range strings.FieldsFunc(query, func(r rune) bool { return r == '&' || r == ';' }) {
		key, val, ok := strings.Cut(param, "=")
		if !ok {
			continue
		}
		if v, err := url.QueryUnescape(val); err == nil {
			val = v
		}
		switch key {
		case keyX:
			d, err := decimal.NewFromString(val)
			if err != nil {
				fields = append(fields, FieldError{Key: key, Value: val, Err: err})
				continue
			}
			pos.X = d
		case keyY:
			d, err := decimal.NewFromString(val)
			if err != nil {
				fields = append(fields, FieldError{Key: key, Value: val, Err: err})
				continue
			}
			pos.Y = d
		case keyZ:
			z, err := strconv.Atoi(val)
			if err == nil && z < 0 {
				err = errors.New("zoom level must not be negative")
			}
			if err != nil {
				fields = append(fields, FieldError{Key: key, Value: val, Err: err})
				continue
			}
			pos.Z = z
		}
	}
	if len(fields) > 0 {
		return pos, &ParseError{Target: target, Fields: fields}
	}
	return pos, nil
}
