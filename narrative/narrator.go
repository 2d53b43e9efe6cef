package narrative

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pasturewatch/models"
	"pasturewatch/observability"

	"golang.org/x/time/rate"
)

var (
	// ErrQuotaExceeded means the local request budget for the text service is
	// spent; the call is rejected without waiting for a token.
	ErrQuotaExceeded = errors.New("narrative quota exceeded")
	// ErrEmptyResponse means the text service answered without any text.
	ErrEmptyResponse = errors.New("empty narrative response")
)

// TextGenerator produces text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result is the outcome of Describe. Text is always safe to show to a user.
type Result struct {
	Status models.NarrativeStatus
	Text   string
	Err    error // set when Status is NarrativeFailed
}

// Narrator wraps a TextGenerator with the skip, quota and failure rules.
type Narrator struct {
	gen     TextGenerator
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewNarrator builds a Narrator allowing rps remote calls per second, with a
// burst of max(1, rps). Calls over the budget fail immediately.
// rps <= 0 disables the local limit.
func NewNarrator(gen TextGenerator, rps float64, logger *slog.Logger, metrics *observability.Metrics) *Narrator {
	lim := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		lim = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
	return &Narrator{gen: gen, limiter: lim, logger: logger, metrics: metrics}
}

// Describe never returns an error: missing input short-circuits to
// FallbackMessage without calling the service, and service failures are
// reported in the Result.
func (n *Narrator) Describe(ctx context.Context, in Input) Result {
	res := n.describe(ctx, in)
	n.metrics.NarrativeResults.WithLabelValues(string(res.Status)).Inc()
	return res
}

func (n *Narrator) describe(ctx context.Context, in Input) Result {
	if in.missing() {
		n.logger.Debug("narrative skipped, statistics or histogram missing")
		return Result{Status: models.NarrativeSkipped, Text: FallbackMessage}
	}

	if !n.limiter.Allow() {
		return n.failed(ErrQuotaExceeded)
	}

	start := time.Now()
	text, err := n.gen.Generate(ctx, BuildPrompt(in))
	n.metrics.NarrativeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return n.failed(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return n.failed(ErrEmptyResponse)
	}
	return Result{Status: models.NarrativeGenerated, Text: text}
}

func (n *Narrator) failed(err error) Result {
	n.logger.Warn("narrative generation failed", "error", err)
	return Result{
		Status: models.NarrativeFailed,
		Text:   "Could not generate the area description: " + err.Error(),
		Err:    err,
	}
}
