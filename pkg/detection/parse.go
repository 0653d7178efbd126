package detection

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/menta2k/minimap-analyzer/pkg/types"
)

// ErrMissingField is returned when the model reply omits a required field
var ErrMissingField = errors.New("missing required field")

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

type wireBox struct {
	XMin *float64 `json:"xmin"`
	YMin *float64 `json:"ymin"`
	XMax *float64 `json:"xmax"`
	YMax *float64 `json:"ymax"`
}

type wireIcon struct {
	Team        *string  `json:"team"`
	AgentGuess  string   `json:"agentGuess"`
	BoundingBox *wireBox `json:"boundingBox"`
}

type wireResponse struct {
	MapName         *string     `json:"mapName"`
	MinimapLocation *wireBox    `json:"minimapLocation"`
	DetectedIcons   *[]wireIcon `json:"detectedIcons"`
	Summary         *string     `json:"summary"`
}

// ParseResponse decodes a model reply into a RawAnalysisResponse.
// Code fences, comments and trailing commas are tolerated; missing required
// fields or malformed JSON are errors.
func ParseResponse(raw string) (*types.RawAnalysisResponse, error) {
	var w wireResponse
	if err := json.Unmarshal([]byte(outermostObject(stripFences(raw))), &w); err != nil {
		// Cleanup rewrites string values too; only used when the reply does not parse as sent
		cleaned := sanitizeModelJSON(raw)
		if !strings.HasPrefix(cleaned, "{") {
			return nil, fmt.Errorf("no JSON object in model reply")
		}
		w = wireResponse{}
		if err := json.Unmarshal([]byte(cleaned), &w); err != nil {
			return nil, fmt.Errorf("failed to parse model reply: %w", err)
		}
	}

	if w.MapName == nil {
		return nil, fmt.Errorf("%w: mapName", ErrMissingField)
	}
	if w.DetectedIcons == nil {
		return nil, fmt.Errorf("%w: detectedIcons", ErrMissingField)
	}
	if w.Summary == nil {
		return nil, fmt.Errorf("%w: summary", ErrMissingField)
	}

	resp := &types.RawAnalysisResponse{
		MapName:       *w.MapName,
		Summary:       *w.Summary,
		DetectedIcons: make([]types.RawDetection, 0, len(*w.DetectedIcons)),
	}

	// All zeros is how models answer "no minimap found", so it falls back to
	// the default bounds; any other degenerate box is rejected by normalize.
	// A partial box is likewise treated as not reported.
	if w.MinimapLocation != nil {
		if b, err := w.MinimapLocation.bounds(); err == nil && b != (types.MinimapBounds{}) {
			resp.MinimapLocation = &b
		}
	}

	for i, icon := range *w.DetectedIcons {
		if icon.Team == nil {
			return nil, fmt.Errorf("%w: detectedIcons[%d].team", ErrMissingField, i)
		}
		if icon.BoundingBox == nil {
			return nil, fmt.Errorf("%w: detectedIcons[%d].boundingBox", ErrMissingField, i)
		}
		b, err := icon.BoundingBox.bounds()
		if err != nil {
			return nil, fmt.Errorf("detectedIcons[%d].boundingBox: %w", i, err)
		}
		resp.DetectedIcons = append(resp.DetectedIcons, types.RawDetection{
			Team:        *icon.Team,
			AgentGuess:  icon.AgentGuess,
			BoundingBox: b,
		})
	}

	return resp, nil
}

func (w *wireBox) bounds() (types.MinimapBounds, error) {
	names := [...]string{"xmin", "ymin", "xmax", "ymax"}
	for i, v := range [...]*float64{w.XMin, w.YMin, w.XMax, w.YMax} {
		if v == nil {
			return types.MinimapBounds{}, fmt.Errorf("%w: %s", ErrMissingField, names[i])
		}
	}
	return types.MinimapBounds{XMin: *w.XMin, YMin: *w.YMin, XMax: *w.XMax, YMax: *w.YMax}, nil
}

// stripFences removes surrounding triple-backtick fences
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	return strings.Trim(raw, "`")
}

// outermostObject keeps only the outermost {...}
func outermostObject(raw string) string {
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

// sanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
func sanitizeModelJSON(raw string) string {
	raw = stripFences(raw)
	raw = reBlock.ReplaceAllString(raw, "")
	// Only whole-line // comments; inline removal would eat "http://" inside strings
	raw = reLine.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")
	return outermostObject(raw)
}
