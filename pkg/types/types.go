package types

import "math"

// Scale is the extent of the normalized coordinate space used for boxes on the full image
const Scale = 1000.0

// MinimapBounds is an axis-aligned rectangle on the 0-1000 full-image scale
type MinimapBounds struct {
	XMin float64 `json:"xmin" yaml:"xmin"`
	YMin float64 `json:"ymin" yaml:"ymin"`
	XMax float64 `json:"xmax" yaml:"xmax"`
	YMax float64 `json:"ymax" yaml:"ymax"`
}

// Width returns the horizontal extent of the rectangle
func (b MinimapBounds) Width() float64 {
	return b.XMax - b.XMin
}

// Height returns the vertical extent of the rectangle
func (b MinimapBounds) Height() float64 {
	return b.YMax - b.YMin
}

// Center returns the midpoint of the rectangle
func (b MinimapBounds) Center() (float64, float64) {
	return (b.XMin + b.XMax) / 2, (b.YMin + b.YMax) / 2
}

// Contains reports whether (x, y) lies inside the rectangle, edges included
func (b MinimapBounds) Contains(x, y float64) bool {
	return b.XMin <= x && x <= b.XMax && b.YMin <= y && y <= b.YMax
}

// IsDegenerate reports whether the rectangle has no usable area or holds non-finite values
func (b MinimapBounds) IsDegenerate() bool {
	for _, v := range []float64{b.XMin, b.YMin, b.XMax, b.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return b.Width() <= 0 || b.Height() <= 0
}

// Valid reports whether the rectangle is non-degenerate and inside the 0-1000 space
func (b MinimapBounds) Valid() bool {
	if b.IsDegenerate() {
		return false
	}
	return b.XMin >= 0 && b.YMin >= 0 && b.XMax <= Scale && b.YMax <= Scale
}

// RawDetection is one icon reported by the vision model, on the full image
type RawDetection struct {
	Team        string        `json:"team"`
	AgentGuess  string        `json:"agentGuess,omitempty"`
	BoundingBox MinimapBounds `json:"boundingBox"`
}

// RawAnalysisResponse is the reply shape requested from the vision model
type RawAnalysisResponse struct {
	MapName         string         `json:"mapName"`
	MinimapLocation *MinimapBounds `json:"minimapLocation,omitempty"`
	DetectedIcons   []RawDetection `json:"detectedIcons"`
	Summary         string         `json:"summary"`
}

// TeamSide is the canonical team tag derived from the model's free-text label
type TeamSide string

const (
	SideRed     TeamSide = "red"
	SideBlue    TeamSide = "blue"
	SideUnknown TeamSide = "unknown"
)

// BoundsSource records which input the resolved minimap rectangle came from
type BoundsSource string

const (
	BoundsManual  BoundsSource = "manual"
	BoundsModel   BoundsSource = "model"
	BoundsDefault BoundsSource = "default"
)

// PlayerPosition is a player marker relative to the minimap, in percent with origin top-left
type PlayerPosition struct {
	Team       string   `json:"team"`
	Side       TeamSide `json:"side"`
	AgentGuess string   `json:"agentGuess,omitempty"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
}

// AnalysisResult is the normalized interpretation of one screenshot
type AnalysisResult struct {
	MapName       string           `json:"mapName"`
	MinimapBounds MinimapBounds    `json:"minimapBounds"`
	BoundsSource  BoundsSource     `json:"boundsSource"`
	Players       []PlayerPosition `json:"players"`
	Summary       string           `json:"summary"`
	Provider      string           `json:"provider,omitempty"`
}

// SendOptions controls how an image is re-encoded before it is sent to a model
type SendOptions struct {
	Format  string
	MaxSize int
	Quality int
}
