package domain

import (
	"math"
	"strconv"
	"strings"
)

// DecimalPlacesDefault leaves values as imported, only collapsing
// integer-valued floats ("10.0" renders as "10").
const DecimalPlacesDefault = "default"

// FormatValue renders a raw measured value for display. Blank input collapses
// to the single-space blank sentinel, comparison-prefixed values pass through
// unrounded, and anything unparseable (value or decimals setting) fails open
// by returning the input.
func FormatValue(raw, decimals string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return " "
	}
	if strings.ContainsAny(s, "<>") {
		return s
	}

	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}

	if decimals == DecimalPlacesDefault {
		if num == math.Trunc(num) && math.Abs(num) < 1e15 {
			return strconv.FormatInt(int64(num), 10)
		}
		return s
	}

	n, err := strconv.Atoi(decimals)
	if err != nil || n < 0 {
		return s
	}
	return strconv.FormatFloat(num, 'f', n, 64)
}
