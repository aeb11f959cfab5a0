// Package scheduler runs the all-pairs comparison sweep over a sorted image list.
//
// One unit of work is spawned per base image i. The unit loads the profile of
// i once, then scores it against every later image j in increasing order.
// At most Concurrency units run at the same time.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/starford/imagesim/internal/models"
	"github.com/starford/imagesim/internal/similarity"
)

// Admission modes.
const (
	// ModeBatch admits Concurrency units, then waits for all of them before admitting more.
	ModeBatch = "batch"
	// ModeSteady starts a new unit as soon as any running unit finishes.
	ModeSteady = "steady"
)

// ProfileSource returns the color profile of an image path.
type ProfileSource interface {
	Get(ctx context.Context, path string) (models.ColorProfile, error)
}

// Progress is notified once per finished unit.
type Progress interface {
	Add(n int) error
}

// Stats describes a finished or running sweep.
type Stats struct {
	UnitsStarted  int64
	UnitsFinished int64
	Comparisons   int64
	MaxInFlight   int64
}

// Scheduler drives the pairwise sweep.
type Scheduler struct {
	src         ProfileSource
	metric      similarity.Metric
	concurrency int
	mode        string
	progress    Progress
	logger      *slog.Logger
	namer       func(string) string

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	started     atomic.Int64
	finished    atomic.Int64
	compared    atomic.Int64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConcurrency sets the maximum number of units in flight.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		s.concurrency = n
	}
}

// WithMode selects ModeBatch or ModeSteady.
func WithMode(mode string) Option {
	return func(s *Scheduler) {
		s.mode = mode
	}
}

// WithProgress reports finished units to p.
func WithProgress(p Progress) Option {
	return func(s *Scheduler) {
		s.progress = p
	}
}

// WithLogger sets the logger used for per-unit progress lines.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithNamer sets how paths are shown in log lines.
func WithNamer(fn func(string) string) Option {
	return func(s *Scheduler) {
		s.namer = fn
	}
}

// DefaultConcurrency is four units per logical CPU.
func DefaultConcurrency() int {
	return runtime.NumCPU() * 4
}

// New creates a Scheduler reading profiles from src and scoring them with metric.
func New(src ProfileSource, metric similarity.Metric, opts ...Option) *Scheduler {
	s := &Scheduler{
		src:         src,
		metric:      metric,
		concurrency: DefaultConcurrency(),
		mode:        ModeBatch,
		logger:      slog.Default(),
		namer:       func(p string) string { return p },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	if s.metric == nil {
		s.metric = similarity.ColorSimilarity
	}
	return s
}

// Run compares every pair i < j of paths and returns the trails grouped by i.
// paths must already be in canonical (sorted) order.
//
// A failing unit does not cancel its siblings. Once the failing batch (or,
// in steady mode, the whole pool) has settled, the first error is returned
// and no further units are admitted.
func (s *Scheduler) Run(ctx context.Context, paths []string) (*Results, error) {
	results := NewResults(len(paths))

	switch s.mode {
	case ModeBatch, "":
		return results, s.runBatches(ctx, paths, results)
	case ModeSteady:
		return results, s.runSteady(ctx, paths, results)
	default:
		return nil, fmt.Errorf("scheduler: unknown mode %q", s.mode)
	}
}

func (s *Scheduler) runBatches(ctx context.Context, paths []string, results *Results) error {
	g := new(errgroup.Group)
	queued := 0

	for i := range paths {
		if err := ctx.Err(); err != nil {
			_ = g.Wait()
			return err
		}

		g.Go(func() error {
			return s.unit(ctx, paths, i, results)
		})
		queued++

		if queued >= s.concurrency {
			if err := g.Wait(); err != nil {
				return err
			}
			g = new(errgroup.Group)
			queued = 0
			// Decoded images of the drained batch are garbage now.
			runtime.GC()
		}
	}
	return g.Wait()
}

func (s *Scheduler) runSteady(ctx context.Context, paths []string, results *Results) error {
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	var failed atomic.Bool
	for i := range paths {
		if failed.Load() || ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if failed.Load() {
				return nil
			}
			err := s.unit(ctx, paths, i, results)
			if err != nil {
				failed.Store(true)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// unit scores base i against every later path, appending in increasing j.
func (s *Scheduler) unit(ctx context.Context, paths []string, i int, results *Results) (err error) {
	s.enter()
	defer s.leave()
	defer func() {
		if err != nil {
			s.logger.Warn("unit failed",
				slog.String("base", paths[i]),
				slog.String("error", err.Error()))
		}
	}()

	base := paths[i]
	p1, err := s.src.Get(ctx, base)
	if err != nil {
		return err
	}
	s.logger.Info("comparing", slog.String("base", s.namer(base)), slog.Int("later", len(paths)-i-1))

	for j := i + 1; j < len(paths); j++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		p2, err := s.src.Get(ctx, paths[j])
		if err != nil {
			return err
		}
		results.Append(i, similarity.ImageSimilarity(p1, p2, s.metric))
		s.compared.Add(1)
	}

	if s.progress != nil {
		if err := s.progress.Add(1); err != nil {
			s.logger.Debug("progress update failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *Scheduler) enter() {
	s.started.Add(1)
	n := s.inFlight.Add(1)
	for {
		cur := s.maxInFlight.Load()
		if n <= cur || s.maxInFlight.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (s *Scheduler) leave() {
	s.inFlight.Add(-1)
	s.finished.Add(1)
}

// Stats returns a snapshot of the sweep counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		UnitsStarted:  s.started.Load(),
		UnitsFinished: s.finished.Load(),
		Comparisons:   s.compared.Load(),
		MaxInFlight:   s.maxInFlight.Load(),
	}
}
