package processing

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/menta2k/minimap-analyzer/pkg/selection"
	"github.com/menta2k/minimap-analyzer/pkg/types"
)

// Side colours used for player dots
var (
	ColorRed     = mustHex("#ff4655")
	ColorBlue    = mustHex("#2fb9c4")
	ColorUnknown = mustHex("#c8c8c8")
)

var black = colorful.Color{R: 0, G: 0, B: 0}

// SideColor returns the dot colour for a team side
func SideColor(side types.TeamSide) colorful.Color {
	switch side {
	case types.SideRed:
		return ColorRed
	case types.SideBlue:
		return ColorBlue
	}
	return ColorUnknown
}

// RenderMinimap crops the resolved minimap out of img, scales it to width
// pixels and draws one dot per player at its percentage position.
func (p *Processor) RenderMinimap(img image.Image, result *types.AnalysisResult, width int) (*image.NRGBA, error) {
	crop, err := p.CropToBounds(img, result.MinimapBounds)
	if err != nil {
		return nil, err
	}
	if width <= 0 {
		width = crop.Bounds().Dx()
	}
	canvas := imaging.Resize(crop, width, 0, imaging.Lanczos)

	w, h := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	radius := int(math.Max(4, 0.025*float64(minInt(w, h))))
	for _, pl := range result.Players {
		px := int(clamp(pl.X, 0, 100)/100*float64(w-1) + 0.5)
		py := int(clamp(pl.Y, 0, 100)/100*float64(h-1) + 0.5)
		fill := SideColor(pl.Side)
		fillCircle(canvas, px, py, radius+2, toNRGBA(fill.BlendLab(black, 0.6)))
		fillCircle(canvas, px, py, radius, toNRGBA(fill))
	}
	return canvas, nil
}

// CreateDebugOverlay draws the resolved minimap rectangle and every player
// position back onto the full screenshot
func (p *Processor) CreateDebugOverlay(img image.Image, result *types.AnalysisResult) (image.Image, error) {
	if result.MinimapBounds.IsDegenerate() {
		return nil, fmt.Errorf("cannot draw degenerate bounds %+v", result.MinimapBounds)
	}
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	gold := color.NRGBA{255, 204, 0, 255}
	stroke := int(math.Max(2, 0.003*float64(minInt(w, h))))
	cross := int(math.Max(4, 0.008*float64(minInt(w, h))))

	rect := selection.ToPixels(result.MinimapBounds, w, h)
	drawRect(nrgba, rect, gold, stroke)

	for _, pl := range result.Players {
		px := rect.Min.X + int(pl.X/100*float64(rect.Dx())+0.5)
		py := rect.Min.Y + int(pl.Y/100*float64(rect.Dy())+0.5)
		c := toNRGBA(SideColor(pl.Side))
		drawHLine(nrgba, py, px-cross, px+cross, c)
		drawVLine(nrgba, px, py-cross, py+cross, c)
	}
	return nrgba, nil
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{r, g, b, 255}
}

// Helper functions
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func fillCircle(img *image.NRGBA, cx, cy, r int, c color.NRGBA) {
	for dy := -r; dy <= r; dy++ {
		half := int(math.Sqrt(float64(r*r - dy*dy)))
		drawHLine(img, cy+dy, cx-half, cx+half+1, c)
	}
}

func drawRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	if r.Empty() {
		return
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Min.Y+s, r.Min.X, r.Max.X, c)
		drawHLine(img, r.Max.Y-1-s, r.Min.X, r.Max.X, c)
		drawVLine(img, r.Min.X+s, r.Min.Y, r.Max.Y, c)
		drawVLine(img, r.Max.X-1-s, r.Min.Y, r.Max.Y, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
