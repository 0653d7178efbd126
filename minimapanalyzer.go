// Package minimapanalyzer interprets tactical-shooter screenshots with a hosted vision model.
//
// A screenshot goes to an Ollama or OpenAI-compatible (llama.cpp) backend
// together with an optional user-marked minimap rectangle. The model's raw
// detections are normalized into minimap-relative player positions.
//
// Basic usage:
//
//	client, err := minimapanalyzer.NewClient("ollama", "http://localhost:11434")
//	if err != nil {
//		log.Fatal(err)
//	}
//	a := minimapanalyzer.New(client, "qwen2.5vl:7b")
//
//	manual := &types.MinimapBounds{XMin: 0, YMin: 0, XMax: 220, YMax: 300}
//	result, err := a.AnalyzeFile(ctx, "round12.png", manual)
//	if err != nil {
//		log.Fatal(err) // errors.Is(err, detection.ErrAnalysisFailed)
//	}
//	for _, p := range result.Players {
//		fmt.Printf("%s (%s) at %.0f%%, %.0f%%\n", p.Team, p.Side, p.X, p.Y)
//	}
//
// All rectangles are on a 0-1000 scale relative to the full screenshot;
// player positions are percentages of the resolved minimap, origin top-left.
package minimapanalyzer

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/menta2k/minimap-analyzer/pkg/client"
	"github.com/menta2k/minimap-analyzer/pkg/detection"
	"github.com/menta2k/minimap-analyzer/pkg/llamacpp"
	"github.com/menta2k/minimap-analyzer/pkg/ollama"
	"github.com/menta2k/minimap-analyzer/pkg/processing"
	"github.com/menta2k/minimap-analyzer/pkg/session"
	"github.com/menta2k/minimap-analyzer/pkg/types"
)

// Version of the minimap analyzer library
const Version = "1.0.0"

// Analyzer prepares screenshots and runs them through a Detector
type Analyzer struct {
	model     string
	send      types.SendOptions
	processor *processing.Processor
	detector  *detection.Detector
}

// Option configures an Analyzer
type Option func(*Analyzer, *[]detection.Option)

// WithSendOptions sets how screenshots are re-encoded before upload
func WithSendOptions(opts types.SendOptions) Option {
	return func(a *Analyzer, _ *[]detection.Option) {
		a.send = opts
	}
}

// WithTolerance widens the minimap inclusion test, in 0-1000 units
func WithTolerance(tol float64) Option {
	return func(_ *Analyzer, d *[]detection.Option) {
		*d = append(*d, detection.WithTolerance(tol))
	}
}

// WithLogger sets the logger passed to the detector
func WithLogger(logger *slog.Logger) Option {
	return func(_ *Analyzer, d *[]detection.Option) {
		*d = append(*d, detection.WithLogger(logger))
	}
}

// NewClient creates the vision client for a backend name; an empty url selects the backend default
func NewClient(backend, url string) (client.VisionClient, error) {
	provider, err := client.ParseProvider(backend)
	if err != nil {
		return nil, err
	}
	if url == "" {
		url = client.DefaultURL(provider)
	}

	var vc client.VisionClient
	switch provider {
	case client.ProviderOllama:
		vc, err = newOllama(url)
	default:
		vc, err = newLlamaCpp(url)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", provider, err)
	}
	return vc, nil
}

func newOllama(url string) (client.VisionClient, error) {
	c, err := ollama.NewClient(url)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newLlamaCpp(url string) (client.VisionClient, error) {
	c, err := llamacpp.NewClient(url)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// New creates an Analyzer for one model on one backend
func New(vc client.VisionClient, model string, opts ...Option) *Analyzer {
	a := &Analyzer{
		model:     model,
		send:      types.SendOptions{Format: "jpg", MaxSize: 1536, Quality: 85},
		processor: processing.NewProcessor(),
	}
	var detOpts []detection.Option
	for _, opt := range opts {
		opt(a, &detOpts)
	}
	a.detector = detection.NewDetector(vc, detOpts...)
	return a
}

// Processor exposes the image helpers used by the analyzer
func (a *Analyzer) Processor() *processing.Processor {
	return a.processor
}

// Analyze interprets one screenshot. manual may be nil to let the model locate the minimap.
func (a *Analyzer) Analyze(ctx context.Context, img image.Image, manual *types.MinimapBounds) (*types.AnalysisResult, error) {
	if err := a.processor.ValidateImage(img); err != nil {
		return nil, fmt.Errorf("%w: %w", detection.ErrAnalysisFailed, err)
	}
	imgB64, err := a.processor.PrepareImageForModel(img, a.send)
	if err != nil {
		return nil, fmt.Errorf("%w: encode image: %w", detection.ErrAnalysisFailed, err)
	}
	return a.detector.Analyze(ctx, a.model, imgB64, manual)
}

// AnalyzeBytes decodes an uploaded screenshot and analyzes it
func (a *Analyzer) AnalyzeBytes(ctx context.Context, data []byte, manual *types.MinimapBounds) (*types.AnalysisResult, error) {
	img, err := a.processor.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", detection.ErrAnalysisFailed, err)
	}
	return a.Analyze(ctx, img, manual)
}

// AnalyzeFile loads a screenshot from a path or URL and analyzes it
func (a *Analyzer) AnalyzeFile(ctx context.Context, source string, manual *types.MinimapBounds) (*types.AnalysisResult, error) {
	img, err := a.processor.LoadImageSmart(source)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", detection.ErrAnalysisFailed, source, err)
	}
	return a.Analyze(ctx, img, manual)
}

// Probe asks the model to describe the screenshot in plain text
func (a *Analyzer) Probe(ctx context.Context, img image.Image) (string, error) {
	imgB64, err := a.processor.PrepareImageForModel(img, a.send)
	if err != nil {
		return "", err
	}
	return a.detector.Probe(ctx, a.model, imgB64)
}

// NewSession starts an upload/select/analyze flow backed by this analyzer
func (a *Analyzer) NewSession() *session.Session {
	return session.New(a.Analyze)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
