// Package report merges classifier, aggregator and narrative output into the
// persisted analysis record and renders it as a standalone HTML document.
package report

import (
	"pasturewatch/degradation"
	"pasturewatch/models"
	"pasturewatch/narrative"
)

// Input is everything a report is composed from.
type Input struct {
	AOI              map[string]any
	AreaSquareMeters float64
	Period           models.AnalysisPeriod
	Image            models.ImageInfo
	Stats            *models.VegetationIndexStats
	Breakpoints      degradation.Breakpoints
	Summary          degradation.Summary
	Narrative        narrative.Result
	Layers           map[string]*string
}

// Assemble builds the report record. Precision: area 2 decimals, index
// statistics 4, class percentages and areas 2, cloud cover 2. Nulls are kept.
func Assemble(in Input) models.AnalysisReport {
	r := models.AnalysisReport{
		AOI:             in.AOI,
		AreaHectares:    degradation.Round(in.AreaSquareMeters/10000, 2),
		Period:          in.Period,
		Image:           in.Image,
		TotalPixels:     in.Summary.TotalPixels,
		Narrative:       in.Narrative.Text,
		NarrativeStatus: in.Narrative.Status,
		Layers:          make(map[string]*string, len(in.Layers)),
	}
	r.Image.CloudPercentage = degradation.Round(in.Image.CloudPercentage, 2)

	if in.Stats != nil {
		r.Stats = models.VegetationIndexStats{
			Min:  degradation.RoundPtr(in.Stats.Min, 4),
			Mean: degradation.RoundPtr(in.Stats.Mean, 4),
			Max:  degradation.RoundPtr(in.Stats.Max, 4),
		}
		if in.Stats.Mean != nil {
			if id, ok := in.Breakpoints.Classify(*in.Stats.Mean); ok {
				c := degradation.Lookup(id)
				r.Overall = &c
			}
		}
	}

	r.Summary = make([]degradation.ClassSummaryEntry, len(in.Summary.Entries))
	for i, e := range in.Summary.Entries {
		e.Percentage = degradation.Round(e.Percentage, 2)
		e.AreaHectares = degradation.Round(e.AreaHectares, 2)
		r.Summary[i] = e
	}

	for name, u := range in.Layers {
		if u == nil {
			r.Layers[name] = nil
			continue
		}
		v := *u
		r.Layers[name] = &v
	}

	if r.NarrativeStatus == "" {
		r.NarrativeStatus = models.NarrativeSkipped
		r.Narrative = narrative.FallbackMessage
	}
	return r
}
