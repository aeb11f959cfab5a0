// Package sampler decodes images and turns them into color profiles.
package sampler

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	_ "golang.org/x/image/webp"

	"github.com/starford/imagesim/internal/apperr"
	"github.com/starford/imagesim/internal/models"
)

// DefaultMaxSize bounds the longer side of a downsampled image.
const DefaultMaxSize = 640

// Resample filter names accepted by WithFilter.
const (
	FilterNearest    = "nearest"
	FilterBox        = "box"
	FilterLinear     = "linear"
	FilterCatmullRom = "catmullrom"
	FilterLanczos    = "lanczos"
)

var filters = map[string]imaging.ResampleFilter{
	FilterNearest:    imaging.NearestNeighbor,
	FilterBox:        imaging.Box,
	FilterLinear:     imaging.Linear,
	FilterCatmullRom: imaging.CatmullRom,
	FilterLanczos:    imaging.Lanczos,
}

// Sampler decodes, downscales and samples images.
type Sampler struct {
	maxSize    int
	filter     imaging.ResampleFilter
	autoOrient bool
}

// Option configures a Sampler.
type Option func(*Sampler) error

// WithMaxSize sets the longer-side bound used to derive the downscale factor.
func WithMaxSize(n int) Option {
	return func(s *Sampler) error {
		if n < 1 {
			return fmt.Errorf("sampler: max size must be positive, got %d", n)
		}
		s.maxSize = n
		return nil
	}
}

// WithFilter selects the resample filter by name.
func WithFilter(name string) Option {
	return func(s *Sampler) error {
		f, ok := filters[name]
		if !ok {
			return fmt.Errorf("sampler: unknown filter %q", name)
		}
		s.filter = f
		return nil
	}
}

// WithAutoOrientation rotates images according to their EXIF orientation tag.
func WithAutoOrientation(on bool) Option {
	return func(s *Sampler) error {
		s.autoOrient = on
		return nil
	}
}

// New creates a Sampler. Defaults: max size 640, linear filter, no auto-orientation.
func New(opts ...Option) (*Sampler, error) {
	s := &Sampler{
		maxSize: DefaultMaxSize,
		filter:  imaging.Linear,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Sample decodes the file at path and returns its color profile.
func (s *Sampler) Sample(path string) (models.ColorProfile, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(s.autoOrient))
	if err != nil {
		return models.ColorProfile{}, apperr.Decode(path, err)
	}
	return s.SampleImage(img), nil
}

// SampleImage downscales an already decoded image and samples every pixel.
func (s *Sampler) SampleImage(img image.Image) models.ColorProfile {
	b := img.Bounds()
	if b.Empty() {
		return models.ColorProfile{}
	}
	w, h := ScaledSize(b.Dx(), b.Dy(), s.maxSize)
	small := imaging.Resize(img, w, h, s.filter)

	p := models.ColorProfile{
		Width:   w,
		Height:  h,
		Samples: make([]models.ColorSample, 0, w*h),
	}
	for y := 0; y < h; y++ {
		row := small.Pix[y*small.Stride:]
		for x := 0; x < w; x++ {
			px := row[x*4 : x*4+4]
			p.Samples = append(p.Samples, NewColorSample(px[3], px[0], px[1], px[2]))
		}
	}
	return p
}

// ScaledSize divides both dimensions by max(1, max(w, h)/maxSize).
// Floor division does not keep the aspect ratio exactly. Results are at least 1.
func ScaledSize(w, h, maxSize int) (int, int) {
	factor := max(max(w, h)/maxSize, 1)
	return max(w/factor, 1), max(h/factor, 1)
}

// NewColorSample derives HSV and XYZ values from non-premultiplied ARGB bytes.
func NewColorSample(a, r, g, b uint8) models.ColorSample {
	rf := float64(r) / 255.0
	gf := float64(g) / 255.0
	bf := float64(b) / 255.0

	hue, sat, val := colorful.Color{R: rf, G: gf, B: bf}.Hsv()

	return models.ColorSample{
		A: a, R: r, G: g, B: b,
		H: hue, S: sat, V: val,
		X: 0.4124*rf + 0.3576*gf + 0.1805*bf,
		Y: 0.2126*rf + 0.7152*gf + 0.0722*bf,
		Z: 0.0193*rf + 0.1192*gf + 0.9505*bf,
	}
}
