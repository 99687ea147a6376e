// Package pipeline folds library contributors into the aggregate library.
package pipeline

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dshills/playercore/internal/library"
	"github.com/dshills/playercore/internal/plugin"
)

// ErrNilLibrary is returned when a contributor returns no library.
var ErrNilLibrary = errors.New("contributor returned a nil library")

// ContributionError reports a contributor that failed while building the
// library.
type ContributionError struct {
	Plugin string
	Err    error
}

func (e *ContributionError) Error() string {
	return fmt.Sprintf("contributor %q: %v", e.Plugin, e.Err)
}

func (e *ContributionError) Unwrap() error {
	return e.Err
}

// Sort returns a copy of contributors ordered by preferred order, then id.
// The result does not depend on the input order.
func Sort(contributors []plugin.LibraryContributor) []plugin.LibraryContributor {
	sorted := slices.Clone(contributors)
	slices.SortStableFunc(sorted, func(a, b plugin.LibraryContributor) int {
		return cmp.Or(
			cmp.Compare(a.PreferredOrder(), b.PreferredOrder()),
			cmp.Compare(a.ID(), b.ID()),
		)
	})
	return sorted
}

// Fold sorts contributors and threads an empty library through them. Each
// contributor receives the result of every lower-ordered contributor.
func Fold(contributors []plugin.LibraryContributor) (*library.Library, error) {
	return fold(Sort(contributors), nil)
}

// StepFunc observes one contribution step.
type StepFunc func(id string, d time.Duration, err error)

func fold(sorted []plugin.LibraryContributor, step StepFunc) (*library.Library, error) {
	lib := library.New()
	for _, c := range sorted {
		start := time.Now()
		next, err := contribute(c, lib)
		if step != nil {
			step(c.ID(), time.Since(start), err)
		}
		if err != nil {
			return nil, &ContributionError{Plugin: c.ID(), Err: err}
		}
		lib = next
	}
	return lib, nil
}

// contribute calls one contributor, recovering panics.
func contribute(c plugin.LibraryContributor, lib *library.Library) (next *library.Library, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	next, err = c.Contribute(lib)
	if err == nil && next == nil {
		err = ErrNilLibrary
	}
	return next, err
}

// Pipeline computes the aggregate library once and caches the outcome,
// including a failure.
type Pipeline struct {
	contributors []plugin.LibraryContributor
	logger       *slog.Logger
	step         StepFunc

	once sync.Once
	lib  *library.Library
	err  error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithStep sets a hook called after every contribution step.
func WithStep(fn StepFunc) Option {
	return func(p *Pipeline) {
		p.step = fn
	}
}

// New creates a pipeline over contributors.
func New(contributors []plugin.LibraryContributor, opts ...Option) *Pipeline {
	p := &Pipeline{
		contributors: Sort(contributors),
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "pipeline")
	return p
}

// Order returns the contributor ids in fold order.
func (p *Pipeline) Order() []string {
	ids := make([]string, len(p.contributors))
	for i, c := range p.contributors {
		ids[i] = c.ID()
	}
	return ids
}

// Library returns the aggregate library, computing it on the first call.
func (p *Pipeline) Library() (*library.Library, error) {
	p.once.Do(func() {
		start := time.Now()
		p.lib, p.err = fold(p.contributors, p.step)
		if p.err != nil {
			p.logger.Error("library build failed", "error", p.err)
			return
		}
		p.logger.Info("library built",
			"playlists", p.lib.Len(),
			"contributors", len(p.contributors),
			"duration", time.Since(start),
		)
	})
	return p.lib, p.err
}
