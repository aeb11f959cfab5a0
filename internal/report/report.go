// Package report turns similarity trails into the human-readable peak report.
package report

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
)

// Trails gives access to the per-base similarity trails of a sweep.
type Trails interface {
	Scores(base int) []float64
}

// Namer maps a path to the name shown in the report.
type Namer func(path string) string

// Peak is a later image at which a base image's similarity trail peaks.
type Peak struct {
	Name  string
	Score float64
}

// Section lists the peaks found for one base image.
type Section struct {
	Name  string
	Peaks []Peak
}

// Report is the ordered list of sections, one per base image with results.
type Report struct {
	Sections []Section
}

// Build walks the bases in sorted order and runs peak detection on each trail.
// Bases without a trail (the last path, or bases whose unit never ran) are skipped.
//
// Trail offset k refers to paths[i+1+k].
func Build(paths []string, trails Trails, name Namer) (*Report, error) {
	if name == nil {
		name = filepath.Base
	}
	rep := &Report{}

	for i, p := range paths {
		trail := trails.Scores(i)
		if len(trail) == 0 {
			continue
		}
		if i+len(trail) >= len(paths) {
			return nil, fmt.Errorf("report: trail of %s has %d scores but only %d later paths", p, len(trail), len(paths)-i-1)
		}

		sec := Section{Name: name(p)}
		for _, k := range Peaks(trail) {
			sec.Peaks = append(sec.Peaks, Peak{
				Name:  name(paths[i+1+k]),
				Score: trail[k],
			})
		}
		rep.Sections = append(rep.Sections, sec)
	}
	return rep, nil
}

// FormatScore renders a score as its shortest exact decimal string.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// WriteTo writes the report: a header line per section, one "<name> <score>"
// line per peak and a blank line after each section.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	for _, sec := range r.Sections {
		bw.WriteString(sec.Name)
		bw.WriteByte('\n')
		for _, pk := range sec.Peaks {
			bw.WriteString(pk.Name)
			bw.WriteByte(' ')
			bw.WriteString(FormatScore(pk.Score))
			bw.WriteByte('\n')
		}
		bw.WriteByte('\n')
	}
	err := bw.Flush()
	return cw.n, err
}

// Bytes renders the report.
func (r *Report) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = r.WriteTo(&buf)
	return buf.Bytes()
}

// String renders the report.
func (r *Report) String() string {
	return string(r.Bytes())
}

// PeakCount returns the total number of peaks across all sections.
func (r *Report) PeakCount() int {
	n := 0
	for _, sec := range r.Sections {
		n += len(sec.Peaks)
	}
	return n
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
