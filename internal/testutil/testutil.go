// Package testutil provides shared test helpers for writing image fixtures.
package testutil

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// SolidImage returns a w x h image filled with c.
func SolidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// WritePNG encodes img as PNG into dir/name and returns the full path.
func WritePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
	return p
}

// WriteSolidPNG writes a solid-color PNG fixture and returns its path.
func WriteSolidPNG(t *testing.T, dir, name string, w, h int, c color.NRGBA) string {
	t.Helper()
	return WritePNG(t, dir, name, SolidImage(w, h, c))
}

// WriteGarbage writes bytes that no image decoder accepts and returns the path.
func WriteGarbage(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("definitely not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}
