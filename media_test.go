package foundry

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestProcessImageResizesWideImages(t *testing.T) {
	img, data, err := processImage(bytes.NewReader(pngBytes(t, 3000, 1000)), "My Paper.png")
	if err != nil {
		t.Fatalf("processImage failed: %v", err)
	}
	if img.Width != maxImageWidth || img.Height != 800 {
		t.Errorf("size = %dx%d, want %dx800", img.Width, img.Height, maxImageWidth)
	}
	if img.Filename != "my-paper.jpg" {
		t.Errorf("Filename = %q, want %q", img.Filename, "my-paper.jpg")
	}
	if img.Size != len(data) || len(data) == 0 {
		t.Errorf("Size = %d, encoded %d bytes", img.Size, len(data))
	}
}

func TestProcessImageKeepsSmallImages(t *testing.T) {
	img, _, err := processImage(bytes.NewReader(pngBytes(t, 640, 480)), "---.png")
	if err != nil {
		t.Fatalf("processImage failed: %v", err)
	}
	if img.Width != 640 || img.Height != 480 {
		t.Errorf("size = %dx%d, want 640x480", img.Width, img.Height)
	}
	if img.Filename != "background.jpg" {
		t.Errorf("Filename = %q, want fallback %q", img.Filename, "background.jpg")
	}
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	if _, _, err := processImage(bytes.NewReader([]byte("not an image")), "x.png"); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestProcessFontRejects(t *testing.T) {
	if _, err := processFont([]byte("whatever"), "font.woff2"); !errors.Is(err, errUnsupportedFont) {
		t.Errorf("woff2 error = %v, want errUnsupportedFont", err)
	}
	if _, err := processFont([]byte("not a font"), "font.ttf"); err == nil {
		t.Error("expected a parse error for garbage .ttf data")
	}
}

func TestFontRegistrySkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.ttf"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewFontRegistry(dir, echo.New().Logger)

	fonts := []FontAsset{
		{ID: "a", Family: "Broken", File: "broken.ttf"},
		{ID: "b", Family: "Missing", File: "missing.ttf"},
	}
	if r.Register(fonts[0]) {
		t.Error("broken font should not register")
	}
	if got := r.Lookup(fonts); len(got) != 0 {
		t.Errorf("Lookup returned %d fonts, want 0", len(got))
	}
	if ok, seen := r.state["broken.ttf"]; !seen || ok {
		t.Errorf("state[broken.ttf] = %v, %v; want false, true", ok, seen)
	}

	r.Forget("broken.ttf")
	if _, seen := r.state["broken.ttf"]; seen {
		t.Error("Forget should drop the cached state")
	}
}
