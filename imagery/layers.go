package imagery

import "pasturewatch/degradation"

// Layer is a map overlay the processor can render as XYZ tiles.
type Layer struct {
	Name string         `json:"layer"`
	Vis  map[string]any `json:"vis"`
}

// DefaultLayers are the overlays attached to every report.
func DefaultLayers() []Layer {
	return []Layer{
		{Name: "rgb", Vis: map[string]any{"bands": []string{"B4", "B3", "B2"}, "min": 0, "max": 3000}},
		{Name: "degradation", Vis: map[string]any{"min": 0, "max": 5, "palette": degradation.Palette(), "opacity": 0.7}},
		{Name: "ndvi", Vis: map[string]any{"min": -0.2, "max": 0.8, "palette": ndviPalette}},
		{Name: "ndmi", Vis: map[string]any{"min": -0.5, "max": 0.5, "palette": moisturePalette}},
		{Name: "savi", Vis: map[string]any{"min": -0.2, "max": 0.8, "palette": ndviPalette}},
		{Name: "slope", Vis: map[string]any{"min": 0, "max": 30, "palette": slopePalette}},
		{Name: "landcover", Vis: map[string]any{"min": 0, "max": 62}},
	}
}

var (
	ndviPalette     = []string{"#d73027", "#fc8d59", "#fee08b", "#d9ef8b", "#91cf60", "#1a9850"}
	moisturePalette = []string{"#8c510a", "#d8b365", "#f6e8c3", "#c7eae5", "#5ab4ac", "#01665e"}
	slopePalette    = []string{"#ffffcc", "#a1dab4", "#41b6c4", "#2c7fb8", "#253494"}
)
