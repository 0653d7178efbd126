package processing

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/minimap-analyzer/pkg/types"
)

// createTestScreenshot paints a dark frame with a bright minimap square in the top-left
func createTestScreenshot(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/5 && y < height/5 {
				img.Set(x, y, color.RGBA{200, 200, 200, 255})
			} else {
				img.Set(x, y, color.RGBA{20, 20, 30, 255})
			}
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeImage(t *testing.T) {
	p := NewProcessor()
	img, err := p.DecodeImage(encodePNG(t, createTestScreenshot(40, 30)))
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("dimensions: got %v, want 40x30", img.Bounds())
	}

	if _, err := p.DecodeImage([]byte("not an image")); err == nil {
		t.Error("Expected error for garbage input")
	}
}

func TestLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, encodePNG(t, createTestScreenshot(120, 100)), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewProcessor()
	img, err := p.LoadImageSmart(path)
	if err != nil {
		t.Fatalf("LoadImageSmart failed: %v", err)
	}
	if img.Bounds().Dx() != 120 {
		t.Errorf("width: got %d, want 120", img.Bounds().Dx())
	}

	if _, err := p.LoadImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadImageFromURL(t *testing.T) {
	data := encodePNG(t, createTestScreenshot(64, 64))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/text" {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>"))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	p := NewProcessor()
	img, err := p.LoadImageSmart(srv.URL + "/shot.png")
	if err != nil {
		t.Fatalf("LoadImageSmart(url) failed: %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Errorf("width: got %d, want 64", img.Bounds().Dx())
	}

	if _, err := p.LoadImageFromURL(srv.URL + "/text"); err == nil {
		t.Error("Expected error for non-image content type")
	}
	if _, err := p.LoadImageFromURL("ftp://example.com/a.png"); err == nil {
		t.Error("Expected error for unsupported scheme")
	}
}

func TestValidateImage(t *testing.T) {
	p := NewProcessor()
	if err := p.ValidateImage(createTestScreenshot(200, 200)); err != nil {
		t.Errorf("Valid image should pass validation: %v", err)
	}
	if err := p.ValidateImage(createTestScreenshot(50, 400)); err == nil {
		t.Error("Small image should fail validation")
	}
}

func TestPrepareImageForModel(t *testing.T) {
	p := NewProcessor()
	img := createTestScreenshot(800, 400)

	b64, err := p.PrepareImageForModel(img, types.SendOptions{Format: "png", MaxSize: 200})
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	if decoded.Bounds().Dx() != 200 || decoded.Bounds().Dy() != 100 {
		t.Errorf("resized dimensions: got %v, want 200x100", decoded.Bounds())
	}

	jpg, err := p.PrepareImageForModel(img, types.SendOptions{Format: "jpg", Quality: 70})
	if err != nil {
		t.Fatalf("PrepareImageForModel(jpg) failed: %v", err)
	}
	if jpg[:4] != "/9j/" {
		t.Errorf("Expected JPEG base64 prefix, got %q", jpg[:4])
	}
}

func TestCropToBounds(t *testing.T) {
	p := NewProcessor()
	img := createTestScreenshot(1000, 500)

	crop, err := p.CropToBounds(img, types.MinimapBounds{XMin: 0, YMin: 0, XMax: 200, YMax: 200})
	if err != nil {
		t.Fatalf("CropToBounds failed: %v", err)
	}
	if crop.Bounds().Dx() != 200 || crop.Bounds().Dy() != 100 {
		t.Errorf("crop dimensions: got %v, want 200x100", crop.Bounds())
	}
	r, _, _, _ := crop.At(100, 50).RGBA()
	if r>>8 != 200 {
		t.Errorf("Expected minimap pixel inside crop, got red=%d", r>>8)
	}

	if _, err := p.CropToBounds(img, types.MinimapBounds{XMin: 10, YMin: 10, XMax: 10, YMax: 10}); err == nil {
		t.Error("Expected error for empty bounds")
	}
}

func TestSaveImage(t *testing.T) {
	p := NewProcessor()
	img := createTestScreenshot(120, 120)
	dir := t.TempDir()

	for _, format := range []string{"png", "jpg", "webp"} {
		path := filepath.Join(dir, "out."+format)
		if err := p.SaveImage(img, path, format, 90, false); err != nil {
			t.Fatalf("SaveImage(%s) failed: %v", format, err)
		}
		loaded, err := p.LoadImage(path)
		if err != nil {
			t.Fatalf("reload %s failed: %v", format, err)
		}
		if loaded.Bounds().Dx() != 120 {
			t.Errorf("%s width: got %d, want 120", format, loaded.Bounds().Dx())
		}
	}
}
