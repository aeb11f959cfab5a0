// Package models defines the domain types for imagesim.
package models

import "time"

// ColorSample holds the values derived from one pixel of a downsampled image.
type ColorSample struct {
	A, R, G, B uint8

	// H is in degrees [0, 360); S and V are in [0, 1].
	H, S, V float64

	// X, Y, Z come from channel/255 through the sRGB->XYZ matrix, without gamma linearization.
	X, Y, Z float64
}

// ColorProfile is the row-major sample array of a downsampled image.
type ColorProfile struct {
	Width   int
	Height  int
	Samples []ColorSample
}

// Len returns the number of samples in the profile.
func (p ColorProfile) Len() int {
	return len(p.Samples)
}

// FileMeta is a lightweight description of an input image file.
type FileMeta struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}
