package position

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://mapy.cz/turisticka?l=0"

func pos(t *testing.T, x, y string, z int) Position {
	p, err := FromStrings(x, y, z)
	require.NoError(t, err)
	return p
}

func TestArithmetic(t *testing.T) {
	ast := assert.New(t)
	a := pos(t, "15.1", "50.2", 16)
	b := pos(t, "0.05", "0.01", 3)

	sum := a.Add(b)
	ast.True(sum.X.Equal(decimal.RequireFromString("15.15")))
	ast.True(sum.Y.Equal(decimal.RequireFromString("50.21")))
	ast.Equal(16, sum.Z)

	diff := a.Sub(b)
	ast.True(diff.X.Equal(decimal.RequireFromString("15.05")))
	ast.True(diff.Y.Equal(decimal.RequireFromString("50.19")))
	ast.Equal(16, diff.Z)

	ast.True(a.Equal(pos(t, "15.10", "50.200", 16)))
	ast.False(a.Equal(a.WithZoom(15)))
}

func TestDecimalDoesNotDrift(t *testing.T) {
	ast := assert.New(t)
	p := pos(t, "14.4", "50.1", 16)
	step := decimal.RequireFromString("0.1")
	for range 1000 {
		p = p.Offset(step, step.Neg())
	}
	ast.True(p.X.Equal(decimal.RequireFromString("114.4")))
	ast.True(p.Y.Equal(decimal.RequireFromString("-49.9")))
}

func TestRoundTrip(t *testing.T) {
	ast := assert.New(t)
	c, err := NewCodec(base)
	require.NoError(t, err)

	tt := []Position{
		pos(t, "14.4212345678901234567", "50.0871234567890123", 16),
		pos(t, "-0.5", "-12.25", 0),
		pos(t, "0", "0", 21),
		pos(t, "1234567.000001", "7654321.1", 3),
	}
	for _, p := range tt {
		target := c.Encode(p)
		ast.Contains(target, "l=0")
		dp, err := c.Decode(target, Default())
		ast.NoError(err)
		ast.True(p.Equal(dp), "%s != %s", p, dp)
		ast.Equal(target, c.Encode(dp))
	}
}

func TestDecodeTolerant(t *testing.T) {
	ast := assert.New(t)
	prior := pos(t, "15", "50", 16)

	p, err := Decode("https://mapy.cz/turisticka?l=0&x=abc&y=49.5&z=12&foo=bar", prior)
	ast.Error(err)
	ast.True(errors.Is(err, ErrBadField))
	var pe *ParseError
	ast.True(errors.As(err, &pe))
	ast.Len(pe.Fields, 1)
	ast.Equal("x", pe.Fields[0].Key)
	ast.True(p.X.Equal(prior.X))
	ast.True(p.Y.Equal(decimal.RequireFromString("49.5")))
	ast.Equal(12, p.Z)

	p, err = Decode("x=1.5&z=-3&y=", prior)
	ast.Error(err)
	ast.True(errors.As(err, &pe))
	ast.Len(pe.Fields, 2)
	ast.True(p.X.Equal(decimal.RequireFromString("1.5")))
	ast.True(p.Y.Equal(prior.Y))
	ast.Equal(16, p.Z)
}

func TestDecodeOrderIndependent(t *testing.T) {
	ast := assert.New(t)
	a, err := Decode("?z=10&y=2&x=1", Default())
	ast.NoError(err)
	b, err := Decode("?x=1&y=2&z=10", Default())
	ast.NoError(err)
	ast.True(a.Equal(b))
}

func TestDecodeNoQuery(t *testing.T) {
	ast := assert.New(t)
	p, err := Decode("https://mapy.cz/", Default())
	ast.NoError(err)
	ast.True(p.Equal(Default()))
}

func TestFromStrings(t *testing.T) {
	ast := assert.New(t)
	_, err := FromStrings("1", "x", 3)
	ast.Error(err)
	_, err = FromStrings("1", "2", -1)
	ast.Error(err)
}
