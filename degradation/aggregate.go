package degradation

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// maxClassID bounds histogram keys; anything above is not a class.
const maxClassID = math.MaxInt32

// Histogram maps a class id to the number of pixels in that class.
// Classes that were not seen are implicitly zero.
type Histogram map[ClassID]int64

// Total returns the sum of all counts.
func (h Histogram) Total() int64 {
	var total int64
	for _, n := range h {
		total += n
	}
	return total
}

// IDs returns the class ids present in h, ascending.
func (h Histogram) IDs() []ClassID {
	ids := make([]ClassID, 0, len(h))
	for id := range h {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ParseHistogram converts the processor's frequency histogram (string keys
// such as "1" or "1.0", possibly weighted counts) into a Histogram.
// Weighted counts are rounded to the nearest pixel. Counts or totals that do
// not fit in an int64 are rejected.
func ParseHistogram(raw map[string]float64) (Histogram, error) {
	h := make(Histogram, len(raw))
	var total int64
	for k, v := range raw {
		f, err := strconv.ParseFloat(strings.TrimSpace(k), 64)
		if err != nil {
			return nil, fmt.Errorf("histogram key %q: %w", k, err)
		}
		if f < 0 || f > maxClassID || f != math.Trunc(f) {
			return nil, fmt.Errorf("histogram key %q is not a class id", k)
		}
		if v < 0 || math.IsNaN(v) || v >= math.MaxInt64 {
			return nil, fmt.Errorf("histogram count for %q is invalid: %v", k, v)
		}
		n := int64(math.Round(v))
		if total > math.MaxInt64-n {
			return nil, fmt.Errorf("histogram count for %q is invalid: total overflows", k)
		}
		total += n
		h[ClassID(f)] += n
	}
	return h, nil
}

// ClassSummaryEntry is one row of the degradation summary.
type ClassSummaryEntry struct {
	ClassID      ClassID `json:"class_id"      bson:"classId"`
	ClassName    string  `json:"class_name"    bson:"className"`
	Color        string  `json:"color"         bson:"color"`
	Pixels       int64   `json:"pixels"        bson:"pixels"`
	Percentage   float64 `json:"percentage"    bson:"percentage"`   // 0..100, 2 decimals
	AreaHectares float64 `json:"area_hectares" bson:"areaHectares"` // 2 decimals
}

// Summary is the aggregated form of a histogram.
type Summary struct {
	Entries     []ClassSummaryEntry `json:"entries"`
	TotalPixels int64               `json:"total_pixels"`
}

// Empty reports whether the summary has no pixels to describe.
func (s Summary) Empty() bool { return s.TotalPixels == 0 || len(s.Entries) == 0 }

// Aggregate turns a histogram into per-class percentages and areas, given the
// ground sample distance (pixel edge, meters). Entries are ordered by class id.
// A zero total yields an empty summary.
func Aggregate(h Histogram, gsdMeters float64) Summary {
	total := h.Total()
	if total == 0 {
		return Summary{Entries: []ClassSummaryEntry{}}
	}
	pixelAreaSqm := gsdMeters * gsdMeters

	entries := make([]ClassSummaryEntry, 0, len(h))
	for _, id := range h.IDs() {
		n := h[id]
		c := Lookup(id)
		entries = append(entries, ClassSummaryEntry{
			ClassID:      id,
			ClassName:    c.Name,
			Color:        c.Color,
			Pixels:       n,
			Percentage:   Round(100*float64(n)/float64(total), 2),
			AreaHectares: Round(float64(n)*pixelAreaSqm/10000, 2),
		})
	}
	return Summary{Entries: entries, TotalPixels: total}
}

// Round rounds to the given number of decimal places using the shortest
// decimal formatting of x. Exact binary ties go to the even digit, so
// Round(0.125, 2) is 0.12 while Round(0.135, 2) is 0.14 (0.135 is stored
// slightly above the tie). NaN and infinities are returned unchanged.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return r
}

// RoundPtr rounds a nullable value, preserving nil.
func RoundPtr(x *float64, places int) *float64 {
	if x == nil {
		return nil
	}
	r := Round(*x, places)
	return &r
}
