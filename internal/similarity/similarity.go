// Package similarity scores how alike two colors or two color profiles are.
// All functions are pure and return values in [0, 1].
package similarity

import (
	"fmt"
	"math"

	"github.com/starford/imagesim/internal/models"
)

const (
	// DefaultChannelThreshold is the channel delta below which two bytes count as equal.
	DefaultChannelThreshold = 30
	// DefaultXYZThreshold is the XYZ distance below which two colors count as equal.
	DefaultXYZThreshold = 0.1
)

// Metric names accepted by Lookup.
const (
	MetricChannel = "channel"
	MetricXYZ     = "xyz"
)

// Metric compares two color samples.
type Metric func(c1, c2 models.ColorSample) float64

// ChannelSimilarity compares two channel bytes. Deltas under threshold are noise.
func ChannelSimilarity(b1, b2 uint8, threshold int) float64 {
	delta := int(b2) - int(b1)
	if delta < 0 {
		delta = -delta
	}
	if delta < threshold {
		delta = 0
	}
	return (255.0 - float64(delta)) / 255.0
}

// ColorSimilarity is the mean ChannelSimilarity over alpha, red, green and blue.
func ColorSimilarity(c1, c2 models.ColorSample) float64 {
	return channelMean(c1, c2, DefaultChannelThreshold)
}

func channelMean(c1, c2 models.ColorSample, threshold int) float64 {
	result := ChannelSimilarity(c1.A, c2.A, threshold)
	result += ChannelSimilarity(c1.R, c2.R, threshold)
	result += ChannelSimilarity(c1.G, c2.G, threshold)
	result += ChannelSimilarity(c1.B, c2.B, threshold)
	return result / 4.0
}

// XYZSimilarity is one minus the Euclidean distance between the XYZ triples.
func XYZSimilarity(c1, c2 models.ColorSample) float64 {
	return xyzDistance(c1, c2, DefaultXYZThreshold)
}

func xyzDistance(c1, c2 models.ColorSample, threshold float64) float64 {
	dx := c1.X - c2.X
	dy := c1.Y - c2.Y
	dz := c1.Z - c2.Z
	dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if dist < threshold {
		dist = 0
	}
	return 1.0 - dist
}

// ChannelMetric returns the channel-mean metric with a custom threshold.
func ChannelMetric(threshold int) Metric {
	return func(c1, c2 models.ColorSample) float64 {
		return channelMean(c1, c2, threshold)
	}
}

// XYZMetric returns the XYZ-distance metric with a custom threshold.
func XYZMetric(threshold float64) Metric {
	return func(c1, c2 models.ColorSample) float64 {
		return xyzDistance(c1, c2, threshold)
	}
}

// Lookup resolves a metric by name. An empty name selects the channel metric.
func Lookup(name string) (Metric, error) {
	switch name {
	case "", MetricChannel:
		return ColorSimilarity, nil
	case MetricXYZ:
		return XYZSimilarity, nil
	default:
		return nil, fmt.Errorf("similarity: unknown metric %q", name)
	}
}

// ImageSimilarity averages metric over the index-aligned samples of p1 and p2.
//
// The sum runs over min(len(p1), len(p2)) pairs but is divided by len(p1),
// so a shorter p2 lowers the score. The result is therefore not symmetric
// when the lengths differ. An empty p1 scores 0.
func ImageSimilarity(p1, p2 models.ColorProfile, metric Metric) float64 {
	if metric == nil {
		metric = ColorSimilarity
	}
	if p1.Len() == 0 {
		return 0
	}
	n := min(p1.Len(), p2.Len())
	var result float64
	for i := 0; i < n; i++ {
		result += metric(p1.Samples[i], p2.Samples[i])
	}
	return result / float64(p1.Len())
}
