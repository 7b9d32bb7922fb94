// Package engine defines the extraction engine the parser delegates to and
// provides the implementations the command line and tests use.
package engine

import (
	"context"
	"time"

	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/japaniel/duckparse/pkg/language"
	"github.com/japaniel/duckparse/pkg/tree"
	"golang.org/x/sync/semaphore"
)

// Request is one raw parse call.
type Request struct {
	Text     string
	Language language.Language
	// Dimensions restricts the matches returned. Empty means all.
	Dimensions []dimension.Dimension
	// ReferenceTime anchors relative expressions. Nil means now.
	ReferenceTime *time.Time
}

// Names returns the dimension filter as wire names.
func (r Request) Names() []string {
	names := make([]string, len(r.Dimensions))
	for i, d := range r.Dimensions {
		names[i] = string(d)
	}
	return names
}

// Engine is an entity extraction engine. Load must succeed once before
// RawParse is called; calling it again is harmless.
type Engine interface {
	Load(ctx context.Context, langs []language.Language) error
	RawParse(ctx context.Context, req Request) (tree.Tree, error)
}

// Serialized guards an engine so that at most one Load or RawParse call runs
// at a time.
type Serialized struct {
	engine Engine
	sem    *semaphore.Weighted
}

// Serialize wraps e. Waiting for the guard honors context cancellation.
func Serialize(e Engine) *Serialized {
	if s, ok := e.(*Serialized); ok {
		return s
	}
	return &Serialized{engine: e, sem: semaphore.NewWeighted(1)}
}

func (s *Serialized) Load(ctx context.Context, langs []language.Language) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)
	return s.engine.Load(ctx, langs)
}

func (s *Serialized) RawParse(ctx context.Context, req Request) (tree.Tree, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)
	return s.engine.RawParse(ctx, req)
}
