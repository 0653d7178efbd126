// Package normalize turns a raw vision-model reply into minimap-relative player positions.
//
// Detections arrive on the 0-1000 full-image scale. The minimap rectangle is
// resolved first (manual bounds, then the model's own guess, then a fixed
// top-left default), icons whose center falls outside it are dropped, and the
// remaining centers are expressed as percentages of the minimap.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/menta2k/minimap-analyzer/pkg/types"
)

// DefaultBounds is used when neither the user nor the model supplied a minimap rectangle
var DefaultBounds = types.MinimapBounds{XMin: 0, YMin: 0, XMax: 200, YMax: 200}

// ErrDegenerateBounds is returned when the resolved minimap has no usable area
var ErrDegenerateBounds = errors.New("degenerate minimap bounds")

// Options tunes the icon filter
type Options struct {
	// Tolerance widens the inclusion rectangle on every side, in 0-1000 units.
	// Positions are still computed against the unwidened rectangle and clamped.
	Tolerance float64
}

// ResolveBounds picks the authoritative minimap rectangle
func ResolveBounds(manual, model *types.MinimapBounds) (types.MinimapBounds, types.BoundsSource) {
	if manual != nil {
		return *manual, types.BoundsManual
	}
	if model != nil {
		return *model, types.BoundsModel
	}
	return DefaultBounds, types.BoundsDefault
}

// Positions converts full-image detections into percentages of mapBox, keeping input order
func Positions(mapBox types.MinimapBounds, detections []types.RawDetection, opts Options) ([]types.PlayerPosition, error) {
	if mapBox.IsDegenerate() {
		return nil, fmt.Errorf("%w: %+v", ErrDegenerateBounds, mapBox)
	}

	tol := opts.Tolerance
	if tol < 0 {
		tol = 0
	}
	inclusion := types.MinimapBounds{
		XMin: mapBox.XMin - tol,
		YMin: mapBox.YMin - tol,
		XMax: mapBox.XMax + tol,
		YMax: mapBox.YMax + tol,
	}

	w, h := mapBox.Width(), mapBox.Height()
	players := make([]types.PlayerPosition, 0, len(detections))
	for _, d := range detections {
		cx, cy := d.BoundingBox.Center()
		if !inclusion.Contains(cx, cy) {
			continue
		}
		players = append(players, types.PlayerPosition{
			Team:       d.Team,
			Side:       CanonicalSide(d.Team),
			AgentGuess: strings.TrimSpace(d.AgentGuess),
			X:          clamp((cx-mapBox.XMin)*100/w, 0, 100),
			Y:          clamp((cy-mapBox.YMin)*100/h, 0, 100),
		})
	}
	return players, nil
}

// Normalize resolves the minimap and filters the detections of raw.
// It has no side effects; the same inputs always yield the same result.
func Normalize(raw *types.RawAnalysisResponse, manual *types.MinimapBounds, opts Options) (*types.AnalysisResult, error) {
	if raw == nil {
		return nil, errors.New("nil analysis response")
	}

	mapBox, source := ResolveBounds(manual, raw.MinimapLocation)
	players, err := Positions(mapBox, raw.DetectedIcons, opts)
	if err != nil {
		return nil, fmt.Errorf("%s bounds: %w", source, err)
	}

	return &types.AnalysisResult{
		MapName:       strings.TrimSpace(raw.MapName),
		MinimapBounds: mapBox,
		BoundsSource:  source,
		Players:       players,
		Summary:       strings.TrimSpace(raw.Summary),
	}, nil
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
