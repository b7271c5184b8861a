package extstrgutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitMultiValueParam(t *testing.T) {
	ast := assert.New(t)
	tt := []struct {
		name string
		line string
		exp  []string
	}{
		{"single", "value", []string{"value"}},
		{"space", "value1 value2", []string{"value1", "value2"}},
		{"comma", "value1,value2", []string{"value1", "value2"}},
		{"semicolon", "value1;value2", []string{"value1", "value2"}},
		{"mixed", "0-1, 2-3;4-5\t6-7", []string{"0-1", "2-3", "4-5", "6-7"}},
		{"padded", " 1 , 2 ", []string{"1", "2"}},
		{"decimal", "1.2", []string{"1.2"}},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			res := SplitMultiValueParam(tc.line)
			ast.Equal(tc.exp, res)
		})
	}
}

func TestParseIntList(t *testing.T) {
	ast := assert.New(t)
	tt := []struct {
		name string
		line string
		exp  []int
		err  bool
	}{
		{"empty", "", []int{}, false},
		{"pair", "5,5", []int{5, 5}, false},
		{"negative", "-3 12", []int{-3, 12}, false},
		{"garbage", "5,x", nil, true},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			res, err := ParseIntList(tc.line)
			if tc.err {
				ast.Error(err)
				return
			}
			ast.NoError(err)
			ast.Equal(tc.exp, res)
		})
	}
}
