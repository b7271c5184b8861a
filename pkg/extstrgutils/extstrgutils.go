package extstrgutils

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitMultiValueParam splits a string into multiple values using space, comma or semicolon as separator
func SplitMultiValueParam(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';' || r == '\t'
	})
}

// ParseIntList parses a multi value parameter into integers
func ParseIntList(value string) ([]int, error) {
	parts := SplitMultiValueParam(value)
	res := make([]int, 0, len(parts))
	for _, p := range parts {
		i, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", p)
		}
		res = append(res, i)
	}
	return res, nil
}
