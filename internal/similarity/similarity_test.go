package similarity

import (
	"math"
	"testing"

	"github.com/starford/imagesim/internal/models"
)

func profile(samples ...models.ColorSample) models.ColorProfile {
	return models.ColorProfile{Width: len(samples), Height: 1, Samples: samples}
}

func rgb(r, g, b uint8) models.ColorSample {
	return models.ColorSample{
		A: 255, R: r, G: g, B: b,
		X: 0.4124*float64(r)/255 + 0.3576*float64(g)/255 + 0.1805*float64(b)/255,
		Y: 0.2126*float64(r)/255 + 0.7152*float64(g)/255 + 0.0722*float64(b)/255,
		Z: 0.0193*float64(r)/255 + 0.1192*float64(g)/255 + 0.9505*float64(b)/255,
	}
}

func TestChannelSimilarity_Identity(t *testing.T) {
	for b := 0; b < 256; b++ {
		if got := ChannelSimilarity(uint8(b), uint8(b), DefaultChannelThreshold); got != 1.0 {
			t.Fatalf("ChannelSimilarity(%d, %d) = %v, want 1", b, b, got)
		}
	}
}

func TestChannelSimilarity_Symmetric(t *testing.T) {
	for b1 := 0; b1 < 256; b1 += 7 {
		for b2 := 0; b2 < 256; b2 += 5 {
			f := ChannelSimilarity(uint8(b1), uint8(b2), DefaultChannelThreshold)
			g := ChannelSimilarity(uint8(b2), uint8(b1), DefaultChannelThreshold)
			if f != g {
				t.Fatalf("asymmetric at (%d, %d): %v vs %v", b1, b2, f, g)
			}
		}
	}
}

func TestChannelSimilarity_SubThresholdIsExact(t *testing.T) {
	cases := [][2]uint8{{0, 29}, {100, 71}, {255, 226}, {10, 10}}
	for _, c := range cases {
		if got := ChannelSimilarity(c[0], c[1], DefaultChannelThreshold); got != 1.0 {
			t.Errorf("ChannelSimilarity(%d, %d) = %v, want 1", c[0], c[1], got)
		}
	}
}

func TestChannelSimilarity_AtThreshold(t *testing.T) {
	got := ChannelSimilarity(0, 30, DefaultChannelThreshold)
	want := (255.0 - 30.0) / 255.0
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got := ChannelSimilarity(0, 255, DefaultChannelThreshold); got != 0 {
		t.Errorf("opposite bytes = %v, want 0", got)
	}
}

func TestColorSimilarity_Mean(t *testing.T) {
	c1 := models.ColorSample{A: 255, R: 0, G: 0, B: 0}
	c2 := models.ColorSample{A: 255, R: 255, G: 0, B: 0}
	if got := ColorSimilarity(c1, c2); got != 0.75 {
		t.Errorf("ColorSimilarity = %v, want 0.75", got)
	}
}

func TestXYZSimilarity(t *testing.T) {
	black := rgb(0, 0, 0)
	if got := XYZSimilarity(black, black); got != 1.0 {
		t.Errorf("identical = %v, want 1", got)
	}
	// Tiny distances are clamped to zero.
	if got := XYZSimilarity(rgb(100, 100, 100), rgb(101, 100, 100)); got != 1.0 {
		t.Errorf("near-identical = %v, want 1", got)
	}
	white := rgb(255, 255, 255)
	if got := XYZSimilarity(black, white); got >= 0 {
		t.Errorf("black vs white = %v, want negative distance score", got)
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"", MetricChannel, MetricXYZ} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q): %v", name, err)
		}
	}
	if _, err := Lookup("phash"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestImageSimilarity_Self(t *testing.T) {
	p := profile(rgb(10, 20, 30), rgb(200, 100, 0), rgb(255, 255, 255))
	if got := ImageSimilarity(p, p, ColorSimilarity); got != 1.0 {
		t.Errorf("self similarity = %v, want 1", got)
	}
	if got := ImageSimilarity(p, p, XYZSimilarity); got != 1.0 {
		t.Errorf("self similarity (xyz) = %v, want 1", got)
	}
}

func TestImageSimilarity_DividesByFirstLength(t *testing.T) {
	long := profile(rgb(0, 0, 0), rgb(0, 0, 0), rgb(0, 0, 0), rgb(0, 0, 0))
	short := profile(rgb(0, 0, 0), rgb(0, 0, 0))

	if got := ImageSimilarity(long, short, nil); got != 0.5 {
		t.Errorf("long vs short = %v, want 0.5", got)
	}
	if got := ImageSimilarity(short, long, nil); got != 1.0 {
		t.Errorf("short vs long = %v, want 1", got)
	}
}

func TestImageSimilarity_AsymmetricOnLengthMismatch(t *testing.T) {
	p1 := profile(rgb(10, 10, 10), rgb(90, 90, 90), rgb(200, 0, 0))
	p2 := profile(rgb(80, 10, 10), rgb(90, 160, 90))

	a := ImageSimilarity(p1, p2, ColorSimilarity)
	b := ImageSimilarity(p2, p1, ColorSimilarity)
	if a == b {
		t.Errorf("expected asymmetry, both = %v", a)
	}
}

func TestImageSimilarity_EmptyBase(t *testing.T) {
	got := ImageSimilarity(models.ColorProfile{}, profile(rgb(1, 2, 3)), nil)
	if got != 0 || math.IsNaN(got) {
		t.Errorf("empty base = %v, want 0", got)
	}
}
