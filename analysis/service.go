// Package analysis runs one pasture degradation analysis end to end: imagery
// reduction, aggregation, narrative, tile layers and report assembly.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pasturewatch/degradation"
	"pasturewatch/imagery"
	"pasturewatch/models"
	"pasturewatch/narrative"
	"pasturewatch/observability"
	"pasturewatch/report"

	"github.com/jonboulle/clockwork"
)

const dateLayout = "2006-01-02"

// ImageryService is the remote raster reduction capability.
type ImageryService interface {
	Analyze(ctx context.Context, in imagery.Request) (*imagery.Result, error)
	TileURLs(ctx context.Context, imageID string, aoi json.RawMessage, layers []imagery.Layer) map[string]*string
}

// Describer produces the narrative for aggregated statistics.
type Describer interface {
	Describe(ctx context.Context, in narrative.Input) narrative.Result
}

// Options are the per-deployment analysis parameters.
type Options struct {
	Collection           string
	Index                string
	MaxCloudPercentage   float64
	GroundSampleDistance float64 // meters
	LookbackMonths       int
	Breakpoints          degradation.Breakpoints
	LocationContext      string
	Layers               []imagery.Layer
}

// Service runs analyses. It keeps no state between runs; every call hits the
// remote services again.
type Service struct {
	imagery  ImageryService
	narrator Describer
	opts     Options
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewService wires a Service. A nil clock uses the real clock.
func NewService(img ImageryService, narr Describer, opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.Index == "" {
		opts.Index = "NDVI"
	}
	return &Service{imagery: img, narrator: narr, opts: opts, clock: clock, logger: logger, metrics: metrics}
}

// Run analyses aoi over the lookback window ending now. The returned report
// has no owner or id yet. When no scene is available the error matches
// imagery.ErrNoImagery.
func (s *Service) Run(ctx context.Context, aoi AOI) (*models.AnalysisReport, error) {
	start := s.clock.Now()
	r, err := s.run(ctx, aoi, start)

	outcome := "ok"
	switch {
	case errors.Is(err, imagery.ErrNoImagery):
		outcome = "no_imagery"
	case err != nil:
		outcome = "error"
	}
	s.metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
	s.metrics.AnalysisDuration.Observe(s.clock.Since(start).Seconds())
	return r, err
}

func (s *Service) run(ctx context.Context, aoi AOI, now time.Time) (*models.AnalysisReport, error) {
	end := now.UTC()
	period := models.AnalysisPeriod{
		StartDate: end.AddDate(0, -s.opts.LookbackMonths, 0).Format(dateLayout),
		EndDate:   end.Format(dateLayout),
	}

	res, err := s.imagery.Analyze(ctx, imagery.Request{
		AOI:                aoi.Geometry,
		StartDate:          period.StartDate,
		EndDate:            period.EndDate,
		Collection:         s.opts.Collection,
		MaxCloudPercentage: s.opts.MaxCloudPercentage,
		Scale:              s.opts.GroundSampleDistance,
		Index:              s.opts.Index,
		Breakpoints:        s.opts.Breakpoints,
	})
	if err != nil {
		return nil, fmt.Errorf("imagery analyze: %w", err)
	}

	summary := degradation.Aggregate(res.Histogram, s.opts.GroundSampleDistance)
	areaSqm := res.AreaSquareMeters
	if areaSqm <= 0 {
		areaSqm = float64(summary.TotalPixels) * s.opts.GroundSampleDistance * s.opts.GroundSampleDistance
	}
	s.logger.Info("imagery reduced",
		"image_id", res.ImageID,
		"cloud_pct", res.CloudPercentage,
		"total_pixels", summary.TotalPixels,
		"area_ha", areaSqm/10000,
	)

	story := s.narrator.Describe(ctx, narrative.Input{
		Stats:           res.Stats,
		Summary:         summary,
		AreaHectares:    areaSqm / 10000,
		LocationContext: s.opts.LocationContext,
	})

	var layers map[string]*string
	if res.ImageID != "" && len(s.opts.Layers) > 0 {
		layers = s.imagery.TileURLs(ctx, res.ImageID, aoi.Geometry, s.opts.Layers)
	}

	r := report.Assemble(report.Input{
		AOI:              aoi.Map(),
		AreaSquareMeters: areaSqm,
		Period:           period,
		Image: models.ImageInfo{
			ID:              res.ImageID,
			Collection:      s.opts.Collection,
			CloudPercentage: res.CloudPercentage,
		},
		Stats:       res.Stats,
		Breakpoints: s.opts.Breakpoints,
		Summary:     summary,
		Narrative:   story,
		Layers:      layers,
	})
	r.CreatedAt = s.clock.Now().UTC()

	html, err := report.Render(r)
	if err != nil {
		return nil, err
	}
	r.HTML = html
	return &r, nil
}
