package degradation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Breakpoints are the vegetation index boundaries between classes, in
// severity-ascending order. Intervals are half-open: a value exactly on a
// breakpoint belongs to the healthier class.
//
//	v <  Severe               -> Severe
//	Severe   <= v < Moderate  -> Moderate
//	Moderate <= v < Stressed  -> Stressed
//	Stressed <= v < Good      -> Good
//	v >= Good                 -> Excellent
type Breakpoints struct {
	Severe   float64 `json:"severe"`
	Moderate float64 `json:"moderate"`
	Stressed float64 `json:"stressed"`
	Good     float64 `json:"good"`
}

// DefaultBreakpoints are the NDVI thresholds used for pasture in the field.
var DefaultBreakpoints = Breakpoints{Severe: 0.15, Moderate: 0.3, Stressed: 0.5, Good: 0.7}

var errBreakpointOrder = errors.New("breakpoints must be strictly ascending")

// Values returns the breakpoints as an ordered slice.
func (b Breakpoints) Values() []float64 {
	return []float64{b.Severe, b.Moderate, b.Stressed, b.Good}
}

// Validate checks that breakpoints are finite, inside [-1, 1] and strictly ascending.
func (b Breakpoints) Validate() error {
	vals := b.Values()
	for i, v := range vals {
		if math.IsNaN(v) || v < -1 || v > 1 {
			return fmt.Errorf("breakpoint %d out of range [-1, 1]: %v", i+1, v)
		}
		if i > 0 && v <= vals[i-1] {
			return errBreakpointOrder
		}
	}
	return nil
}

// Classify maps a single index value to its class. Masked values (NaN or
// infinite) report false and are never assigned a class.
func (b Breakpoints) Classify(v float64) (ClassID, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	switch {
	case v < b.Severe:
		return Severe, true
	case v < b.Moderate:
		return Moderate, true
	case v < b.Stressed:
		return Stressed, true
	case v < b.Good:
		return Good, true
	default:
		return Excellent, true
	}
}

// ClassifyAll builds a histogram from a sample of index values. Masked
// values are skipped.
func (b Breakpoints) ClassifyAll(values []float64) Histogram {
	h := make(Histogram)
	for _, v := range values {
		if id, ok := b.Classify(v); ok {
			h[id]++
		}
	}
	return h
}

// ParseBreakpoints reads four comma separated thresholds, e.g. "0.15,0.3,0.5,0.7".
func ParseBreakpoints(s string) (Breakpoints, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Breakpoints{}, fmt.Errorf("expected 4 breakpoints, got %d", len(parts))
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Breakpoints{}, fmt.Errorf("breakpoint %d: %w", i+1, err)
		}
		vals[i] = v
	}
	b := Breakpoints{Severe: vals[0], Moderate: vals[1], Stressed: vals[2], Good: vals[3]}
	if err := b.Validate(); err != nil {
		return Breakpoints{}, err
	}
	return b, nil
}
