// Package narrative turns analysis statistics into a prose diagnosis using
// an external generative-text service.
package narrative

import (
	"fmt"
	"strings"

	"pasturewatch/degradation"
	"pasturewatch/models"
)

// FallbackMessage replaces the narrative when there is nothing to describe.
const FallbackMessage = "A detailed description could not be generated because NDVI statistics or pixel counts are missing."

// DefaultLocationContext is used when the caller gives no location hint.
const DefaultLocationContext = "a rural area in Brazil"

// Input is everything the narrative is built from.
type Input struct {
	Stats           *models.VegetationIndexStats
	Summary         degradation.Summary
	AreaHectares    float64
	LocationContext string
}

func (in Input) missing() bool {
	return in.Stats.Absent() || in.Summary.Empty()
}

// BuildPrompt renders the request text. The output depends only on in.
func BuildPrompt(in Input) string {
	loc := in.LocationContext
	if strings.TrimSpace(loc) == "" {
		loc = DefaultLocationContext
	}

	var b strings.Builder
	b.WriteString("You are an agronomist specialised in remote sensing and the recovery of degraded pastures. ")
	fmt.Fprintf(&b, "Analyse the data of a pasture located in %s. ", loc)
	b.WriteString("Your report must be technical, precise and aimed at a farmer. ")
	b.WriteString("Give a diagnosis of the pasture health, point out the critical areas based on the degradation classes and suggest management or interventions. ")
	fmt.Fprintf(&b, "The total analysed area is approximately %.2f hectares.\n\n", in.AreaHectares)

	b.WriteString("**Technical data:**\n")
	var lo, avg, hi *float64
	if in.Stats != nil {
		lo, avg, hi = in.Stats.Min, in.Stats.Mean, in.Stats.Max
	}
	fmt.Fprintf(&b, "- **NDVI statistics:** Min=%s, Mean=%s, Max=%s\n", fmt3(lo), fmt3(avg), fmt3(hi))
	b.WriteString("- **Pasture health class distribution:**\n")
	for _, e := range in.Summary.Entries {
		fmt.Fprintf(&b, "  - %s: %.2f%%\n", e.ClassName, e.Percentage)
	}

	b.WriteString("\n**Diagnosis and recommendations:**\n")
	b.WriteString("Based on the data above, describe the overall condition of the pasture and your recommendations. ")
	b.WriteString("If there are areas of severe or moderate degradation, highlight them as priorities. Format the answer in Markdown.")
	return b.String()
}

func fmt3(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *v)
}
