package models

import (
	"time"

	"pasturewatch/degradation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NarrativeStatus mirrors the outcome of the narrative call.
type NarrativeStatus string

const (
	NarrativeGenerated NarrativeStatus = "generated"
	NarrativeSkipped   NarrativeStatus = "skipped"
	NarrativeFailed    NarrativeStatus = "failed"
)

// VegetationIndexStats holds min/mean/max of the index over the AOI.
// Any value may be nil when the raster had no valid pixels.
type VegetationIndexStats struct {
	Min  *float64 `bson:"min"  json:"min"`
	Mean *float64 `bson:"mean" json:"mean"`
	Max  *float64 `bson:"max"  json:"max"`
}

// Absent reports whether no statistic is available at all.
func (s *VegetationIndexStats) Absent() bool {
	return s == nil || (s.Min == nil && s.Mean == nil && s.Max == nil)
}

// AnalysisPeriod is the imagery search window, formatted YYYY-MM-DD.
type AnalysisPeriod struct {
	StartDate string `bson:"startDate" json:"start_date"`
	EndDate   string `bson:"endDate"   json:"end_date"`
}

// ImageInfo is the provenance of the scene used for the analysis.
type ImageInfo struct {
	ID              string  `bson:"id"              json:"id"`
	Collection      string  `bson:"collection"      json:"collection,omitempty"`
	CloudPercentage float64 `bson:"cloudPercentage" json:"cloud_percentage"` // 2 decimals
}

// AnalysisReport is one persisted analysis. It is written once and read-only afterwards.
type AnalysisReport struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"ownerId"       json:"owner_id"`
	CreatedAt time.Time          `bson:"createdAt"     json:"created_at"`

	AOI          map[string]any       `bson:"aoiGeojson"   json:"aoi_geojson"` // GeoJSON Polygon/MultiPolygon
	AreaHectares float64              `bson:"areaHectares" json:"aoi_area_hectares"`
	Period       AnalysisPeriod       `bson:"period"       json:"analysis_period"`
	Image        ImageInfo            `bson:"image"        json:"satellite_image_info"`
	Stats        VegetationIndexStats `bson:"ndviStats"    json:"ndvi_stats"` // 4 decimals

	// Overall is the class of the mean index value; nil when the mean is absent.
	Overall     *degradation.Class              `bson:"overall,omitempty" json:"overall_condition,omitempty"`
	Summary     []degradation.ClassSummaryEntry `bson:"summary"           json:"degradation_summary"`
	TotalPixels int64                           `bson:"totalPixels"       json:"total_pixels"`

	Narrative       string          `bson:"narrative"       json:"ai_description"`
	NarrativeStatus NarrativeStatus `bson:"narrativeStatus" json:"ai_status"`

	Layers map[string]*string `bson:"layers" json:"map_layers_urls"` // nil URL when a layer could not be rendered

	HTML string `bson:"html" json:"-"`
}
