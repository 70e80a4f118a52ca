package velocity

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrStopTime  = errors.New("velocity: stop time must be non-negative with at most one decimal place")
	ErrNotFinite = errors.New("velocity: value must be finite")
)

// InputParseError describes a rejected numeric entry. It never leaves the
// editing boundary: ParseEntry recovers from it by keeping the previous
// value.
type InputParseError struct {
	Input string
	Err   error
}

func (e *InputParseError) Error() string {
	return fmt.Sprintf("invalid number %q: %v", e.Input, e.Err)
}

func (e *InputParseError) Unwrap() error { return e.Err }

// Parse parses a numeric entry.
func Parse(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &InputParseError{Input: s, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &InputParseError{Input: s, Err: ErrNotFinite}
	}
	return v, nil
}

// ParseEntry returns the value typed in s, or prev when s is empty,
// malformed, or an incomplete number such as "-" or ".".
func ParseEntry(s string, prev float64) float64 {
	v, err := Parse(s)
	if err != nil {
		return prev
	}
	return v
}

// ParseStopTime parses the stop time field. An empty field means no stop
// time.
func ParseStopTime(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > 1 {
		return nil, &InputParseError{Input: s, Err: ErrStopTime}
	}
	v, err := Parse(s)
	if err != nil {
		return nil, err
	}
	if v < 0 {
		return nil, &InputParseError{Input: s, Err: ErrStopTime}
	}
	return &v, nil
}

// FormatClock renders a clock value rounded to tenths, either as seconds
// ("75.3") or minutes ("1:15.3").
func FormatClock(seconds float64, minutes bool) string {
	tenths := int64(seconds*10 + 0.5)
	if !minutes {
		return fmt.Sprintf("%d.%d", tenths/10, tenths%10)
	}
	m := tenths / 600
	rem := tenths % 600
	return fmt.Sprintf("%d:%02d.%d", m, rem/10, rem%10)
}
