// Package selection converts a user-drawn rectangle into minimap bounds.
package selection

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/menta2k/minimap-analyzer/pkg/types"
)

// MinSize is the smallest accepted selection extent on each axis, in 0-1000 units
const MinSize = 20.0

// ErrTooSmall is returned for selections below MinSize on either axis
var ErrTooSmall = errors.New("selection too small")

// FromDrag converts a drag between two pixel points on an imgW x imgH image into
// 0-1000 bounds. The drag may go in any direction and is clamped to the image.
func FromDrag(start, end image.Point, imgW, imgH int) (types.MinimapBounds, error) {
	if imgW <= 0 || imgH <= 0 {
		return types.MinimapBounds{}, fmt.Errorf("invalid image dimensions %dx%d", imgW, imgH)
	}

	r := image.Rectangle{Min: start, Max: end}.Canon().Intersect(image.Rect(0, 0, imgW, imgH))
	b := types.MinimapBounds{
		XMin: math.Round(float64(r.Min.X) * types.Scale / float64(imgW)),
		YMin: math.Round(float64(r.Min.Y) * types.Scale / float64(imgH)),
		XMax: math.Round(float64(r.Max.X) * types.Scale / float64(imgW)),
		YMax: math.Round(float64(r.Max.Y) * types.Scale / float64(imgH)),
	}
	return b, Validate(b)
}

// Validate checks that b lies inside the 0-1000 space and is at least MinSize on both axes
func Validate(b types.MinimapBounds) error {
	if b.IsDegenerate() {
		return fmt.Errorf("%w: %gx%g", ErrTooSmall, b.Width(), b.Height())
	}
	if !b.Valid() {
		return fmt.Errorf("bounds %+v outside 0-%g", b, types.Scale)
	}
	if b.Width() < MinSize || b.Height() < MinSize {
		return fmt.Errorf("%w: %gx%g (minimum %g)", ErrTooSmall, b.Width(), b.Height(), MinSize)
	}
	return nil
}

// Parse reads bounds written as "xmin,ymin,xmax,ymax"
func Parse(s string) (types.MinimapBounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return types.MinimapBounds{}, fmt.Errorf("bounds %q: want xmin,ymin,xmax,ymax", s)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return types.MinimapBounds{}, fmt.Errorf("bounds %q: %w", s, err)
		}
		v[i] = f
	}

	b := types.MinimapBounds{XMin: v[0], YMin: v[1], XMax: v[2], YMax: v[3]}
	return b, Validate(b)
}

// ToPixels maps 0-1000 bounds onto an imgW x imgH pixel grid
func ToPixels(b types.MinimapBounds, imgW, imgH int) image.Rectangle {
	fw, fh := float64(imgW)/types.Scale, float64(imgH)/types.Scale
	r := image.Rect(
		int(b.XMin*fw+0.5),
		int(b.YMin*fh+0.5),
		int(b.XMax*fw+0.5),
		int(b.YMax*fh+0.5),
	)
	return r.Intersect(image.Rect(0, 0, imgW, imgH))
}
