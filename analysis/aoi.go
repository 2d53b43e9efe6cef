package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidAOI wraps every validation failure of a submitted area of interest.
var ErrInvalidAOI = errors.New("invalid area of interest")

// AOI is a validated Polygon or MultiPolygon geometry.
type AOI struct {
	Type     string
	Geometry json.RawMessage // the geometry object only, as sent to the processor
}

// Map returns the geometry as a generic document for persistence.
func (a AOI) Map() map[string]any {
	var m map[string]any
	_ = json.Unmarshal(a.Geometry, &m)
	return m
}

type geoJSON struct {
	Type        string          `json:"type"`
	Features    []geoJSON       `json:"features"`
	Geometry    *geoJSON        `json:"geometry"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAOI, fmt.Sprintf(format, args...))
}

// ParseAOI accepts a FeatureCollection (its first feature is used), a single
// Feature, or a bare geometry. Only Polygon and MultiPolygon are allowed and
// every ring must be closed.
func ParseAOI(raw []byte) (AOI, error) {
	var doc geoJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return AOI{}, invalid("bad json: %v", err)
	}

	g := &doc
	switch doc.Type {
	case "FeatureCollection":
		if len(doc.Features) == 0 {
			return AOI{}, invalid("feature collection is empty")
		}
		g = &doc.Features[0]
		if g.Type != "Feature" {
			return AOI{}, invalid("features[0] is not a Feature")
		}
		fallthrough
	case "Feature":
		if g.Geometry == nil {
			return AOI{}, invalid("feature has no geometry")
		}
		g = g.Geometry
	}

	var err error
	switch g.Type {
	case "Polygon":
		var rings [][][]float64
		if err = json.Unmarshal(g.Coordinates, &rings); err == nil {
			err = checkPolygon(rings)
		}
	case "MultiPolygon":
		var polys [][][][]float64
		if err = json.Unmarshal(g.Coordinates, &polys); err == nil {
			if len(polys) == 0 {
				err = errors.New("multipolygon has no polygons")
			}
			for _, p := range polys {
				if err == nil {
					err = checkPolygon(p)
				}
			}
		}
	default:
		return AOI{}, invalid("geometry.type must be Polygon or MultiPolygon, got %q", g.Type)
	}
	if err != nil {
		return AOI{}, invalid("%v", err)
	}

	geom, err := json.Marshal(struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}{g.Type, g.Coordinates})
	if err != nil {
		return AOI{}, invalid("%v", err)
	}
	return AOI{Type: g.Type, Geometry: geom}, nil
}

func checkPolygon(rings [][][]float64) error {
	if len(rings) == 0 {
		return errors.New("polygon has no rings")
	}
	for i, ring := range rings {
		if len(ring) < 4 {
			return fmt.Errorf("ring %d needs at least 4 positions", i)
		}
		for _, pos := range ring {
			if len(pos) < 2 {
				return fmt.Errorf("ring %d has a position without lon/lat", i)
			}
			if pos[0] < -180 || pos[0] > 180 || pos[1] < -90 || pos[1] > 90 {
				return fmt.Errorf("ring %d has a position out of range: %v", i, pos)
			}
		}
		first, last := ring[0], ring[len(ring)-1]
		if first[0] != last[0] || first[1] != last[1] {
			return fmt.Errorf("ring %d is not closed", i)
		}
	}
	return nil
}
