package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonNumericRegex      = regexp.MustCompile(`[^0-9.,]+`)
	thousandsDotRegex    = regexp.MustCompile(`\.(\d{3})(\D|$)`)
	usGroupedNumberRegex = regexp.MustCompile(`^\d{1,3}(,\d{3})+\.\d+$`)
)

// ParseNumber converts a locale formatted amount ("R$ 1.234,56", "1234.56",
// "$1,234.56") into a float. The second return value is false when nothing
// numeric is left or the result is not finite.
func ParseNumber(raw string) (float64, bool) {
	s := nonNumericRegex.ReplaceAllString(raw, "")
	if s == "" {
		return 0, false
	}

	if usGroupedNumberRegex.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		// a dot followed by exactly three digits is a thousands separator
		for {
			stripped := thousandsDotRegex.ReplaceAllString(s, "$1$2")
			if stripped == s {
				break
			}
			s = stripped
		}
		s = strings.Replace(s, ",", ".", 1)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
