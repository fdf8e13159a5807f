// Package duration turns attendance cells and lecture headers into minutes.
package duration

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nconklindev/rollup/internal/types"
)

// HourCutoff is the largest bare number still read as hours.
const HourCutoff = 24

var (
	clockRe  = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})$`)
	parensRe = regexp.MustCompile(`\(([^)]+)\)`)
	rangeRe  = regexp.MustCompile(`(?i)(\d{1,2}:\d{2}\s*(?:AM|PM)?)\s*-\s*(\d{1,2}:\d{2}\s*(?:AM|PM)?)`)
	timeRe   = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*(AM|PM)?$`)
)

// IsAbsent reports whether text marks a missing value: blank, "-", or
// anything containing "not".
func IsAbsent(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "-" || strings.Contains(strings.ToLower(s), "not")
}

// IsClock reports whether s is an H:MM:SS duration.
func IsClock(s string) bool {
	return clockRe.MatchString(strings.TrimSpace(s))
}

// Minutes converts an attendance cell into minutes attended.
func Minutes(c types.Cell) float64 {
	switch v := c.(type) {
	case types.Number:
		return fromNumber(v.Value)
	case types.Text:
		return fromText(string(v))
	default:
		return 0
	}
}

// parseMinutes is Minutes for raw text.
func parseMinutes(s string) float64 {
	return Minutes(types.NewCell(s))
}

func fromNumber(n float64) float64 {
	if n <= 0 {
		return 0
	}
	if n <= HourCutoff {
		return n * 60
	}
	return n
}

func fromText(s string) float64 {
	s = strings.TrimSpace(s)
	if IsAbsent(s) {
		return 0
	}
	if m := clockRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		sec, _ := strconv.Atoi(m[3])
		return float64(h*60+min) + float64(sec)/60
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return fromNumber(n)
	}
	return 0
}

// Expected reads the scheduled length of a lecture from a header such as
// "Lecture 1 (2025-07-26, 09:58 AM - 12:52 PM)". It returns 0 when no time
// range can be found or the range is not positive.
func Expected(header string) float64 {
	inside := parensRe.FindStringSubmatch(header)
	if inside == nil {
		return 0
	}
	r := rangeRe.FindStringSubmatch(inside[1])
	if r == nil {
		return 0
	}
	start, ok1 := clockMinutes(r[1])
	end, ok2 := clockMinutes(r[2])
	if !ok1 || !ok2 {
		return 0
	}
	if diff := end - start; diff > 0 {
		return float64(diff)
	}
	return 0
}

// clockMinutes converts "HH:MM AM" or 24h "HH:MM" into minutes after midnight.
func clockMinutes(s string) (int, bool) {
	m := timeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	switch strings.ToUpper(m[3]) {
	case "PM":
		if h != 12 {
			h += 12
		}
	case "AM":
		if h == 12 {
			h = 0
		}
	}
	return h*60 + min, true
}

// Attended decides presence for one lecture. With no known expected length
// any positive time counts.
func Attended(minutes, expected, ratio float64) bool {
	if expected > 0 {
		return minutes >= expected*ratio
	}
	return minutes > 0
}
