package cascade

import (
	"math"
	"strconv"
	"strings"
)

// readNumber is the only place where stored text becomes a number. Empty text
// yields 0 silently, anything that does not parse yields 0 with a reason, and
// the result is clamped to [lo, hi].
func readNumber(raw string, lo, hi float64) (float64, Reason) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ""
	}
	var ambiguous bool
	if !strings.Contains(s, ".") {
		ambiguous = thousandsLike(s)
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ReasonUnparseable
	}

	switch {
	case v < lo:
		return lo, ReasonNegative
	case v > hi:
		return hi, ReasonAboveOne
	case ambiguous:
		return v, ReasonAmbiguousComma
	}
	return v, ""
}

// thousandsLike reports whether a single comma is followed by exactly three
// digits after a non-zero integer part, as in "1,000". Such text is read with
// a decimal comma but may have been meant as a thousands separator.
func thousandsLike(s string) bool {
	whole, frac, ok := strings.Cut(s, ",")
	if !ok || strings.Contains(frac, ",") || len(frac) != 3 {
		return false
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return false
		}
	}
	whole = strings.TrimLeft(whole, "+-")
	return strings.Trim(whole, "0") != ""
}

func readProbability(raw string) (float64, Reason) {
	return readNumber(raw, 0, 1)
}

func readImpact(raw string) (float64, Reason) {
	return readNumber(raw, 0, math.MaxFloat64)
}
