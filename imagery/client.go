// Package imagery talks to the external imagery processor that selects a
// scene, computes the vegetation index and reduces it over an area of interest.
package imagery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"pasturewatch/degradation"
	"pasturewatch/models"
	"pasturewatch/observability"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// ErrNoImagery is returned when no scene matches the area, period and cloud filter.
var ErrNoImagery = errors.New("no imagery found for this area in the period; try a longer period or a higher cloud limit")

// maxTileFanout bounds concurrent tile requests per report.
const maxTileFanout = 4

// Request describes one reduction over an area of interest.
type Request struct {
	AOI                json.RawMessage         `json:"aoi"` // GeoJSON geometry
	StartDate          string                  `json:"start_date"`
	EndDate            string                  `json:"end_date"`
	Collection         string                  `json:"collection"`
	MaxCloudPercentage float64                 `json:"max_cloud_percentage"`
	Scale              float64                 `json:"scale"` // ground sample distance, meters
	Index              string                  `json:"index"`
	Breakpoints        degradation.Breakpoints `json:"breakpoints"`
}

// Result is what the processor computed for a Request.
type Result struct {
	ImageID          string
	CloudPercentage  float64
	AreaSquareMeters float64
	Stats            *models.VegetationIndexStats
	Histogram        degradation.Histogram
}

type analyzeResponse struct {
	ImageID          string                       `json:"image_id"`
	CloudPercentage  float64                      `json:"cloud_percentage"`
	AreaSquareMeters float64                      `json:"area_sqm"`
	Stats            *models.VegetationIndexStats `json:"stats"`
	Histogram        map[string]float64           `json:"histogram"`
	Samples          []*float64                   `json:"samples"` // null entries are masked pixels
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type tileRequest struct {
	ImageID string          `json:"image_id"`
	AOI     json.RawMessage `json:"aoi"`
	Layer
}

type tileResponse struct {
	URL string `json:"url"`
}

// Client calls the imagery processor over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a processor client. Every request is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// Analyze asks the processor for index statistics and the class histogram.
// When the processor returns raw index samples instead of a histogram, the
// samples are classified locally with the request breakpoints.
func (c *Client) Analyze(ctx context.Context, in Request) (*Result, error) {
	if len(in.AOI) == 0 {
		return nil, fmt.Errorf("empty aoi")
	}
	var out analyzeResponse
	if err := c.post(ctx, "analyze", "/analyses", in, &out); err != nil {
		return nil, err
	}

	res := &Result{
		ImageID:          out.ImageID,
		CloudPercentage:  out.CloudPercentage,
		AreaSquareMeters: out.AreaSquareMeters,
		Stats:            out.Stats,
	}
	switch {
	case out.Histogram != nil:
		h, err := degradation.ParseHistogram(out.Histogram)
		if err != nil {
			return nil, fmt.Errorf("decode histogram: %w", err)
		}
		res.Histogram = h
	case out.Samples != nil:
		values := make([]float64, len(out.Samples))
		for i, v := range out.Samples {
			if v == nil {
				values[i] = math.NaN()
				continue
			}
			values[i] = *v
		}
		res.Histogram = in.Breakpoints.ClassifyAll(values)
		if res.Stats == nil {
			res.Stats = sampleStats(values)
		}
	default:
		res.Histogram = degradation.Histogram{}
	}
	return res, nil
}

// sampleStats summarises the unmasked samples. It returns nil when every
// sample is masked.
func sampleStats(values []float64) *models.VegetationIndexStats {
	finite := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return nil
	}
	lo, err := finite.Min()
	if err != nil {
		return nil
	}
	avg, _ := finite.Mean()
	hi, _ := finite.Max()
	return &models.VegetationIndexStats{Min: &lo, Mean: &avg, Max: &hi}
}

// TileURLs requests a tile URL template for every layer. A layer that fails
// is logged and mapped to nil; the call itself never fails.
func (c *Client) TileURLs(ctx context.Context, imageID string, aoi json.RawMessage, layers []Layer) map[string]*string {
	urls := make([]*string, len(layers))

	var g errgroup.Group
	g.SetLimit(maxTileFanout)
	for i, l := range layers {
		g.Go(func() error {
			var out tileResponse
			err := c.post(ctx, "tile", "/tiles", tileRequest{ImageID: imageID, AOI: aoi, Layer: l}, &out)
			if err != nil || out.URL == "" {
				c.logger.Warn("tile url unavailable", "layer", l.Name, "image_id", imageID, "error", err)
				return nil
			}
			u := out.URL
			urls[i] = &u
			return nil
		})
	}
	_ = g.Wait()

	m := make(map[string]*string, len(layers))
	for i, l := range layers {
		m[l.Name] = urls[i]
	}
	return m
}

func (c *Client) post(ctx context.Context, op, path string, in, out any) error {
	start := time.Now()
	err := c.doPost(ctx, path, in, out)
	c.metrics.ImageryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.ImageryRequests.WithLabelValues(op, outcome).Inc()
	return err
}

func (c *Client) doPost(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal processor req: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("processor call failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Code == "no_imagery" {
			return ErrNoImagery
		}
		return fmt.Errorf("processor non-2xx: %s, body: %s", resp.Status, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode processor resp: %w", err)
	}
	return nil
}
