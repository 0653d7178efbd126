package detection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/menta2k/minimap-analyzer/pkg/client"
	"github.com/menta2k/minimap-analyzer/pkg/normalize"
	"github.com/menta2k/minimap-analyzer/pkg/types"
)

// ErrAnalysisFailed wraps every failure of an analysis request
var ErrAnalysisFailed = errors.New("analysis failed")

// Detector sends a screenshot to a vision model and normalizes its reply
type Detector struct {
	client client.VisionClient
	opts   normalize.Options
	logger *slog.Logger
}

// Option configures a Detector
type Option func(*Detector)

// WithTolerance widens the minimap inclusion test by tol units on the 0-1000 scale
func WithTolerance(tol float64) Option {
	return func(d *Detector) {
		d.opts.Tolerance = tol
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDetector creates a new detector with a vision client
func NewDetector(client client.VisionClient, opts ...Option) *Detector {
	d := &Detector{
		client: client,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Analyze runs one analysis request. Manual bounds, when given, are passed to
// the model as ground truth and win over the model's own minimap guess.
// Any failure is returned wrapped in ErrAnalysisFailed.
func (d *Detector) Analyze(ctx context.Context, model, imageB64 string, manual *types.MinimapBounds) (*types.AnalysisResult, error) {
	provider := d.client.Provider()
	log := d.logger.With("provider", provider, "model", model, "manual_bounds", manual != nil)

	reply, err := d.client.StructuredQuery(ctx, model, BuildPrompt(manual), imageB64, ResponseSchema)
	if err != nil {
		log.Error("vision request failed", "error", err)
		return nil, fmt.Errorf("%w: %s request: %w", ErrAnalysisFailed, provider, err)
	}
	log.Debug("vision reply received", "bytes", len(reply))

	raw, err := ParseResponse(reply)
	if err != nil {
		log.Error("unusable vision reply", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	result, err := normalize.Normalize(raw, manual, d.opts)
	if err != nil {
		log.Error("normalization failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	result.Provider = string(provider)

	log.Info("analysis complete",
		"map", result.MapName,
		"bounds_source", result.BoundsSource,
		"detected", len(raw.DetectedIcons),
		"players", len(result.Players))
	return result, nil
}

// Probe checks whether the model can see the image at all
func (d *Detector) Probe(ctx context.Context, model, imageB64 string) (string, error) {
	return d.client.SimpleQuery(ctx, model, SimpleTestPrompt, imageB64)
}
