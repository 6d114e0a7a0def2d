package gamelog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidInnings is returned for innings-pitched values that are not in
// thirds notation.
var ErrInvalidInnings = errors.New("invalid innings pitched")

// ParseInnings converts baseball thirds notation into innings: "6.1" is
// 6 1/3, "6.2" is 6 2/3. An empty value and "0.0" are zero innings. The
// fractional part must be a single digit of 0, 1 or 2.
func ParseInnings(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0.0" {
		return 0, nil
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	w, err := strconv.Atoi(whole)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInnings, s)
	}
	if !hasFrac {
		return float64(w), nil
	}

	var thirds int
	switch frac {
	case "", "0":
		thirds = 0
	case "1":
		thirds = 1
	case "2":
		thirds = 2
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidInnings, s)
	}
	return float64(w) + float64(thirds)/3.0, nil
}

// GameERA is the earned run average of a single appearance:
// earned runs per nine innings. innings must be positive.
func GameERA(earnedRuns int, innings float64) float64 {
	return float64(earnedRuns) * 9.0 / innings
}
