package grading

import (
	"math"
	"strconv"
	"strings"
)

const numericEpsilon = 1e-9

// parseNumber reads decimals and simple fractions ("3/4", "-1/2") as written
// in grid-in answers.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, nOK := parseFloatLoose(num)
		d, dOK := parseFloatLoose(den)
		if !nOK || !dOK || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	return parseFloatLoose(s)
}

func parseFloatLoose(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if sp := strings.Fields(s); len(sp) > 0 {
		if v, err := strconv.ParseFloat(sp[0], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= numericEpsilon
}
