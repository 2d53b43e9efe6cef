// Package degradation classifies vegetation index values into pasture health
// classes and aggregates per-class pixel histograms into area summaries.
//
// Classes are ordinal and severity-ascending: a lower id means a more degraded
// pasture. Class 0 is reserved for pixels the imagery processor explicitly
// masked as "other" (water, built-up, no data) and is never produced by the
// classifier itself.
package degradation

import "fmt"

// ClassID identifies a pasture health class.
type ClassID int

const (
	Unclassified ClassID = 0
	Severe       ClassID = 1
	Moderate     ClassID = 2
	Stressed     ClassID = 3
	Good         ClassID = 4
	Excellent    ClassID = 5
)

// Class is one row of the static class table.
type Class struct {
	ID    ClassID `json:"id"`
	Name  string  `json:"name"`
	Color string  `json:"color"` // hex, used by the degradation tile palette and the HTML legend
}

// unknownColor is used for ids outside the table.
const unknownColor = "#888888"

// Classes is the fixed class table, indexed by ClassID.
var Classes = [...]Class{
	{ID: Unclassified, Name: "Unclassified / Other", Color: "#CCCCCC"},
	{ID: Severe, Name: "Severe Degradation", Color: "#a50026"},
	{ID: Moderate, Name: "Moderate Degradation", Color: "#d73027"},
	{ID: Stressed, Name: "Stressed Pasture", Color: "#fdae61"},
	{ID: Good, Name: "Good Pasture", Color: "#66bd63"},
	{ID: Excellent, Name: "Excellent Pasture", Color: "#1a9641"},
}

// Known reports whether id is part of the class table.
func (id ClassID) Known() bool {
	return id >= Unclassified && int(id) < len(Classes)
}

// Lookup returns the table entry for id. Unknown ids get a generic
// "unknown class <id>" label instead of failing.
func Lookup(id ClassID) Class {
	if id.Known() {
		return Classes[id]
	}
	return Class{ID: id, Name: fmt.Sprintf("unknown class %d", int(id)), Color: unknownColor}
}

// Label is shorthand for Lookup(id).Name.
func Label(id ClassID) string { return Lookup(id).Name }

// Palette returns the class colors in id order, as the degradation tile layer expects.
func Palette() []string {
	out := make([]string, len(Classes))
	for i, c := range Classes {
		out[i] = c.Color
	}
	return out
}
