package semantic

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/degreefyd/assistant/internal/models"
)

// ErrClosed is returned by a Lazy index closed before it was built.
var ErrClosed = errors.New("semantic index closed")

// DefaultBuildTimeout bounds a Lazy build, corpus load included.
const DefaultBuildTimeout = 30 * time.Minute

// Lazy defers building an Index until first use. The build runs at most
// once; its error, if any, is returned by every later call. The build is
// detached from the first caller's cancellation and bounded by its own
// timeout instead.
type Lazy struct {
	build        func(ctx context.Context) (Index, error)
	buildTimeout time.Duration
	once         sync.Once
	index        Index
	err          error
	built        atomic.Bool
}

// LazyOption configures a Lazy index.
type LazyOption func(*Lazy)

// WithBuildTimeout overrides DefaultBuildTimeout. Non-positive values are ignored.
func WithBuildTimeout(d time.Duration) LazyOption {
	return func(l *Lazy) {
		if d > 0 {
			l.buildTimeout = d
		}
	}
}

// NewLazy returns a Lazy index that calls build on first use.
func NewLazy(build func(ctx context.Context) (Index, error), opts ...LazyOption) *Lazy {
	l := &Lazy{build: build, buildTimeout: DefaultBuildTimeout}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Get builds the index if needed and returns it.
func (l *Lazy) Get(ctx context.Context) (Index, error) {
	l.once.Do(func() {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.buildTimeout)
		defer cancel()
		l.index, l.err = l.build(buildCtx)
		l.built.Store(l.index != nil && l.err == nil)
	})
	if l.index == nil && l.err == nil {
		return nil, ErrClosed
	}
	return l.index, l.err
}

// Warmup forces initialisation.
func (l *Lazy) Warmup(ctx context.Context) error {
	_, err := l.Get(ctx)
	return err
}

// Built returns the index if an earlier call built it successfully. It never
// triggers a build.
func (l *Lazy) Built() (Index, bool) {
	if !l.built.Load() {
		return nil, false
	}
	return l.index, true
}

// Search implements Searcher.
func (l *Lazy) Search(ctx context.Context, text, docType string, n int) ([]models.Document, error) {
	idx, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Search(ctx, text, docType, n)
}

// Add implements Index.
func (l *Lazy) Add(ctx context.Context, docs []models.Document) error {
	idx, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return idx.Add(ctx, docs)
}

// Count returns 0 until the index is built successfully. It never triggers
// a build.
func (l *Lazy) Count() int {
	idx, ok := l.Built()
	if !ok {
		return 0
	}
	return idx.Count()
}

// Close closes the index if it was built.
func (l *Lazy) Close() error {
	l.once.Do(func() {})
	if l.index == nil {
		return nil
	}
	return l.index.Close()
}
