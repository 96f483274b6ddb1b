package metrics

import (
	"context"

	"github.com/panbanda/defectmine/pkg/loc"
	"github.com/panbanda/defectmine/pkg/window"
)

// Contribution is one commit's change to one ClassUnit.
type Contribution struct {
	Path   string
	Author string
	Edits  []window.Edit
}

// insertions sums the spans of pure insertion edits.
func (c Contribution) insertions() int {
	n := 0
	for _, e := range c.Edits {
		if e.Type() == window.Insert {
			n += e.Span()
		}
	}
	return n
}

// deletions sums the spans of pure deletion edits.
func (c Contribution) deletions() int {
	n := 0
	for _, e := range c.Edits {
		if e.Type() == window.Delete {
			n += e.Span()
		}
	}
	return n
}

// Aggregator accumulates one metric over a single window. A new
// Aggregator is created for every window, so no state crosses releases.
type Aggregator interface {
	Kind() Kind
	Observe(c Contribution)
	Finish(ctx context.Context, w *window.Window) (map[string]int, error)
}

// Factory creates a fresh Aggregator.
type Factory func() Aggregator

// sumAggregator keeps a running sum of a per-commit value.
type sumAggregator struct {
	kind   Kind
	value  func(Contribution) int
	totals map[string]int
}

func newSum(kind Kind, value func(Contribution) int) Factory {
	return func() Aggregator {
		return &sumAggregator{kind: kind, value: value, totals: make(map[string]int)}
	}
}

func (a *sumAggregator) Kind() Kind { return a.kind }

func (a *sumAggregator) Observe(c Contribution) {
	a.totals[c.Path] += a.value(c)
}

func (a *sumAggregator) Finish(context.Context, *window.Window) (map[string]int, error) {
	return a.totals, nil
}

// maxAggregator keeps the largest per-commit value seen.
type maxAggregator struct {
	kind  Kind
	value func(Contribution) int
	max   map[string]int
}

func newMax(kind Kind, value func(Contribution) int) Factory {
	return func() Aggregator {
		return &maxAggregator{kind: kind, value: value, max: make(map[string]int)}
	}
}

func (a *maxAggregator) Kind() Kind { return a.kind }

func (a *maxAggregator) Observe(c Contribution) {
	v := a.value(c)
	if cur, ok := a.max[c.Path]; !ok || v > cur {
		a.max[c.Path] = v
	}
}

func (a *maxAggregator) Finish(context.Context, *window.Window) (map[string]int, error) {
	return a.max, nil
}

type authorAggregator struct {
	authors map[string]map[string]struct{}
}

func (a *authorAggregator) Kind() Kind { return NAuth }

func (a *authorAggregator) Observe(c Contribution) {
	set, ok := a.authors[c.Path]
	if !ok {
		set = make(map[string]struct{})
		a.authors[c.Path] = set
	}
	set[c.Author] = struct{}{}
}

func (a *authorAggregator) Finish(context.Context, *window.Window) (map[string]int, error) {
	out := make(map[string]int, len(a.authors))
	for path, set := range a.authors {
		out[path] = len(set)
	}
	return out, nil
}

type averageAggregator struct {
	sum   map[string]int
	count map[string]int
}

func (a *averageAggregator) Kind() Kind { return AvgLOCAdded }

func (a *averageAggregator) Observe(c Contribution) {
	a.sum[c.Path] += c.insertions()
	a.count[c.Path]++
}

func (a *averageAggregator) Finish(context.Context, *window.Window) (map[string]int, error) {
	out := make(map[string]int, len(a.sum))
	for path, sum := range a.sum {
		out[path] = sum / a.count[path]
	}
	return out, nil
}

// sizeAggregator ignores commits and measures the blobs of the tip tree.
type sizeAggregator struct {
	counter loc.Counter
}

func (a *sizeAggregator) Kind() Kind { return Size }

func (a *sizeAggregator) Observe(Contribution) {}

func (a *sizeAggregator) Finish(ctx context.Context, w *window.Window) (map[string]int, error) {
	return Sizes(ctx, w, a.counter)
}

// Sizes measures every class of the window in its tip tree.
func Sizes(ctx context.Context, w *window.Window, counter loc.Counter) (map[string]int, error) {
	out := make(map[string]int, len(w.Classes))
	for _, path := range w.Classes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := w.Tree.File(path)
		if err != nil {
			return nil, err
		}
		n, err := counter.Count(ctx, path, content)
		if err != nil {
			return nil, err
		}
		out[path] = n
	}
	return out, nil
}

// SizeFactory measures size with counter.
func SizeFactory(counter loc.Counter) Factory {
	return func() Aggregator { return &sizeAggregator{counter: counter} }
}

func touched(c Contribution) int {
	n := 0
	for _, e := range c.Edits {
		n += e.Span()
	}
	return n
}

func revision(Contribution) int { return 1 }

func insertions(c Contribution) int { return c.insertions() }

func churn(c Contribution) int { return c.insertions() - c.deletions() }

// DefaultFactories returns one factory per metric kind.
func DefaultFactories(counter loc.Counter) []Factory {
	return []Factory{
		SizeFactory(counter),
		newSum(LOCTouched, touched),
		newSum(NR, revision),
		func() Aggregator { return &authorAggregator{authors: make(map[string]map[string]struct{})} },
		newSum(LOCAdded, insertions),
		newMax(MaxLOCAdded, insertions),
		func() Aggregator { return &averageAggregator{sum: make(map[string]int), count: make(map[string]int)} },
		newSum(Churn, churn),
		newMax(MaxChurn, churn),
	}
}
