package degradation

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Bands(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want ClassID
	}{
		{"bare soil", -0.2, Severe},
		{"just below first breakpoint", 0.1499, Severe},
		{"on first breakpoint", 0.15, Moderate},
		{"moderate", 0.2, Moderate},
		{"on second breakpoint", 0.3, Stressed},
		{"stressed", 0.45, Stressed},
		{"on third breakpoint", 0.5, Good},
		{"good", 0.69, Good},
		{"on fourth breakpoint", 0.7, Excellent},
		{"dense canopy", 0.95, Excellent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DefaultBreakpoints.Classify(tt.v)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_MaskedValuesAreExcluded(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		id, ok := DefaultBreakpoints.Classify(v)
		assert.False(t, ok)
		assert.Equal(t, ClassID(0), id)
	}
}

func TestClassifyAll_SkipsMaskedPixels(t *testing.T) {
	h := DefaultBreakpoints.ClassifyAll([]float64{0.1, 0.3, 0.31, math.NaN(), 0.8})
	assert.Equal(t, Histogram{Severe: 1, Stressed: 2, Excellent: 1}, h)
	_, hasUnclassified := h[Unclassified]
	assert.False(t, hasUnclassified)
}

func TestParseBreakpoints(t *testing.T) {
	b, err := ParseBreakpoints("0.15, 0.3,0.5 ,0.7")
	require.NoError(t, err)
	assert.Equal(t, DefaultBreakpoints, b)

	_, err = ParseBreakpoints("0.3,0.15,0.5,0.7")
	require.Error(t, err)

	_, err = ParseBreakpoints("0.1,0.2,0.3")
	require.Error(t, err)

	_, err = ParseBreakpoints("0.1,0.2,0.3,1.5")
	require.Error(t, err)

	_, err = ParseBreakpoints("0.1,abc,0.3,0.4")
	require.Error(t, err)
}

func TestLookup_UnknownClass(t *testing.T) {
	assert.Equal(t, "Severe Degradation", Label(Severe))
	assert.Equal(t, "unknown class 9", Label(9))
	assert.Equal(t, "unknown class -1", Label(-1))
	assert.Len(t, Palette(), 6)
}

func TestAggregate_Example(t *testing.T) {
	s := Aggregate(Histogram{1: 10, 3: 30}, 10)

	assert.Equal(t, int64(40), s.TotalPixels)
	require.Len(t, s.Entries, 2)

	assert.Equal(t, Severe, s.Entries[0].ClassID)
	assert.Equal(t, "Severe Degradation", s.Entries[0].ClassName)
	assert.InDelta(t, 25.00, s.Entries[0].Percentage, 1e-9)
	assert.InDelta(t, 0.10, s.Entries[0].AreaHectares, 1e-9)

	assert.Equal(t, Stressed, s.Entries[1].ClassID)
	assert.InDelta(t, 75.00, s.Entries[1].Percentage, 1e-9)
	assert.InDelta(t, 0.30, s.Entries[1].AreaHectares, 1e-9)
}

func TestAggregate_EmptyHistogram(t *testing.T) {
	for _, h := range []Histogram{nil, {}, {1: 0, 4: 0}} {
		s := Aggregate(h, 10)
		assert.Empty(t, s.Entries)
		assert.Zero(t, s.TotalPixels)
		assert.True(t, s.Empty())
	}
}

func TestAggregate_UnknownClassDoesNotFail(t *testing.T) {
	s := Aggregate(Histogram{9: 5, 2: 5}, 30)
	require.Len(t, s.Entries, 2)
	assert.Equal(t, ClassID(2), s.Entries[0].ClassID)
	assert.Equal(t, "unknown class 9", s.Entries[1].ClassName)
	assert.InDelta(t, 50.0, s.Entries[1].Percentage, 1e-9)
	assert.InDelta(t, 0.45, s.Entries[1].AreaHectares, 1e-9)
}

func TestAggregate_PercentagesSumToHundred(t *testing.T) {
	histograms := []Histogram{
		{0: 1, 1: 1, 2: 1, 3: 1, 4: 1, 5: 1},
		{1: 3, 2: 3, 3: 3},
		{1: 7, 2: 11, 3: 13, 4: 17, 5: 19},
		{5: 1},
		{0: 333, 1: 333, 2: 334},
		{1: 1, 2: 99999},
	}
	for _, h := range histograms {
		var sum float64
		for _, e := range Aggregate(h, 10).Entries {
			sum += e.Percentage
		}
		assert.InDelta(t, 100, sum, 0.1, "histogram %v", h)
	}
}

func TestAggregate_OrderedByClassID(t *testing.T) {
	s := Aggregate(Histogram{5: 100, 0: 1, 3: 50, 1: 2}, 10)
	var ids []ClassID
	for _, e := range s.Entries {
		ids = append(ids, e.ClassID)
	}
	assert.Equal(t, []ClassID{0, 1, 3, 5}, ids)
}

func TestAggregate_Idempotent(t *testing.T) {
	h := Histogram{1: 17, 2: 3, 4: 29, 5: 8}
	a, err := json.Marshal(Aggregate(h, 10))
	require.NoError(t, err)
	b, err := json.Marshal(Aggregate(h, 10))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseHistogram(t *testing.T) {
	h, err := ParseHistogram(map[string]float64{"1": 10, "3.0": 29.6, "3": 0.4})
	require.NoError(t, err)
	assert.Equal(t, Histogram{1: 10, 3: 30}, h)

	_, err = ParseHistogram(map[string]float64{"1.5": 3})
	require.Error(t, err)

	_, err = ParseHistogram(map[string]float64{"x": 3})
	require.Error(t, err)

	_, err = ParseHistogram(map[string]float64{"2": -1})
	require.Error(t, err)

	_, err = ParseHistogram(map[string]float64{"1": 1e19, "2": 10})
	require.Error(t, err)

	_, err = ParseHistogram(map[string]float64{"1": math.Pow(2, 63)})
	require.Error(t, err)

	_, err = ParseHistogram(map[string]float64{"1": 6e18, "2": 6e18})
	require.Error(t, err)

	_, err = ParseHistogram(map[string]float64{"1e300": 5})
	require.Error(t, err)

	_, err = ParseHistogram(map[string]float64{"4294967296": 5})
	require.Error(t, err)
}

func TestAggregate_TiesRoundToEven(t *testing.T) {
	s := Aggregate(Histogram{1: 1, 2: 799}, 10)
	require.Len(t, s.Entries, 2)
	assert.Equal(t, 0.12, s.Entries[0].Percentage)
	assert.Equal(t, 99.88, s.Entries[1].Percentage)

	s = Aggregate(Histogram{1: 5, 2: 795}, 10)
	assert.Equal(t, 0.62, s.Entries[0].Percentage)
	assert.Equal(t, 99.38, s.Entries[1].Percentage)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.12, Round(0.125, 2))
	assert.Equal(t, 0.62, Round(0.625, 2))
	assert.Equal(t, 0.14, Round(0.135, 2))
	assert.Equal(t, 2.67, Round(2.675, 2))
	assert.Equal(t, -0.12, Round(-0.125, 2))
	assert.True(t, math.IsInf(Round(math.Inf(1), 2), 1))
	assert.InDelta(t, -0.1235, Round(-0.12346, 4), 1e-12)
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
	assert.Nil(t, RoundPtr(nil, 2))
	v := 0.123456
	assert.InDelta(t, 0.1235, *RoundPtr(&v, 4), 1e-12)
}
