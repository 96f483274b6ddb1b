// Package metrics computes the per-file change metrics of a release window
// and collects them in a table keyed by (release, class).
package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/panbanda/defectmine/pkg/loc"
	"github.com/panbanda/defectmine/pkg/window"
)

// ErrIncompleteSuite is returned when a suite does not cover every metric
// exactly once.
var ErrIncompleteSuite = errors.New("metric suite must cover every kind exactly once")

// Columns holds one window's metric values by kind and class path.
type Columns map[Kind]map[string]int

// Suite is a complete set of metric factories.
type Suite struct {
	factories []Factory
}

// NewSuite validates that factories produce each Kind exactly once.
func NewSuite(factories ...Factory) (*Suite, error) {
	var seen [numKinds]bool
	for _, f := range factories {
		k := f().Kind()
		if k < 0 || k >= numKinds {
			return nil, fmt.Errorf("%w: unknown %s", ErrIncompleteSuite, k)
		}
		if seen[k] {
			return nil, fmt.Errorf("%w: duplicate %s", ErrIncompleteSuite, k)
		}
		seen[k] = true
	}
	for k, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrIncompleteSuite, Kind(k))
		}
	}
	return &Suite{factories: factories}, nil
}

// DefaultSuite returns the nine standard metrics with size measured by counter.
func DefaultSuite(counter loc.Counter) *Suite {
	s, err := NewSuite(DefaultFactories(counter)...)
	if err != nil {
		panic(err)
	}
	return s
}

// AggregateWindow replays every commit of w through fresh aggregators.
func AggregateWindow(ctx context.Context, w *window.Window, suite *Suite) (Columns, error) {
	aggs := make([]Aggregator, len(suite.factories))
	for i, f := range suite.factories {
		aggs[i] = f()
	}

	for _, c := range w.Commits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		diffs, err := window.Diff(c, w.Filter)
		if err != nil {
			return nil, fmt.Errorf("diff %s: %w", c.Hash(), err)
		}
		author := c.Author().Name
		for _, d := range diffs {
			contrib := Contribution{Path: d.Path, Author: author, Edits: d.Edits}
			for _, a := range aggs {
				a.Observe(contrib)
			}
		}
	}

	cols := make(Columns, len(aggs))
	for _, a := range aggs {
		values, err := a.Finish(ctx, w)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Kind(), err)
		}
		cols[a.Kind()] = values
	}
	return cols, nil
}
