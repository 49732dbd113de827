package keyboard

import (
	"strconv"
	"strings"
)

// ParsePower accepts a plain decimal integer in [0, max]. Signs, spaces
// and any other characters are rejected.
func ParsePower(s string, max int) (int, bool) {
	if !allDigits(s) {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v > max {
		return 0, false
	}
	return v, true
}

// ParseRotation accepts degrees in [0, max] written as digits with an
// optional fraction ("90", "45.5"). Exponents, hex floats, signs and
// spaces are rejected.
func ParseRotation(s string, max float64) (float64, bool) {
	whole, frac, hasFrac := strings.Cut(s, ".")
	if !allDigits(whole) || (hasFrac && !allDigits(frac)) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > max {
		return 0, false
	}
	return v, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// digitMagnitude maps '1'..'9' to 1..9 and '0' to 10 (full scale)
func digitMagnitude(key rune) (int, bool) {
	if key < '0' || key > '9' {
		return 0, false
	}
	if key == '0' {
		return 10, true
	}
	return int(key - '0'), true
}
