// Package proportion estimates the release in which a bug was injected when
// the tracker does not record it, using the Proportion heuristic
//
//	P = (FV - IV) / (FV - OV)
//
// trained incrementally on tickets whose injected version is known.
package proportion

import (
	"time"

	"github.com/panbanda/defectmine/pkg/models"
	"github.com/panbanda/defectmine/pkg/release"
)

// DefaultP is used when no trained entry covers a query date.
const DefaultP = 1

// Estimator is an untrained Proportion estimator. Only Train yields a
// value that can answer queries.
type Estimator struct {
	idx *release.Index
}

// New creates an Estimator over idx.
func New(idx *release.Index) *Estimator {
	return &Estimator{idx: idx}
}

// Entry is the cumulative average P in force from one release on.
type Entry struct {
	Release models.Release `json:"release"`
	P       int            `json:"p"`
	// Samples is the number of tickets fixed in this release.
	Samples int `json:"samples"`
	// Total is the number of samples averaged into P so far.
	Total int `json:"total"`
}

// Sample is the per-ticket observation used in training.
type Sample struct {
	TicketID string `json:"ticket"`
	Injected int    `json:"injected"`
	Opening  int    `json:"opening"`
	Fixed    int    `json:"fixed"`
	P        int    `json:"p"`
}

// Trained is a Proportion table that can be queried.
type Trained struct {
	idx     *release.Index
	entries []Entry
	samples []Sample
}

// Train computes the per-release P table. Only tickets with affected
// versions that resolve to a release and satisfy IV < OV < FV contribute.
// The value at each release is the running average over every sample of
// that release and all earlier ones.
func (e *Estimator) Train(tickets []models.Ticket) *Trained {
	buckets := make([][]int, e.idx.Len()+1)
	var samples []Sample

	for _, t := range tickets {
		if !t.HasAffectedVersions() {
			continue
		}
		iv, ok := e.idx.EarliestContaining(t.AffectedVersions)
		if !ok {
			continue
		}
		ov := e.idx.NextAfter(t.CreatedAt)
		fv := e.idx.NextAfter(t.ResolvedAt)
		if !(iv < ov && ov < fv) {
			continue
		}
		p := (fv - iv) / (fv - ov)
		buckets[fv] = append(buckets[fv], p)
		samples = append(samples, Sample{TicketID: t.ID, Injected: iv, Opening: ov, Fixed: fv, P: p})
	}

	trained := &Trained{idx: e.idx, samples: samples}
	total, count := 0, 0
	for _, r := range e.idx.Releases() {
		bucket := buckets[r.Ordinal]
		if len(bucket) == 0 {
			continue
		}
		for _, p := range bucket {
			total += p
			count++
		}
		trained.entries = append(trained.entries, Entry{
			Release: r,
			P:       total / count,
			Samples: len(bucket),
			Total:   count,
		})
	}
	return trained
}

// Entries returns the trained table in release order.
func (t *Trained) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Samples returns the tickets that contributed to training.
func (t *Trained) Samples() []Sample {
	out := make([]Sample, len(t.samples))
	copy(out, t.samples)
	return out
}

// P returns the value of the first entry whose release was not cut before
// at, or DefaultP when there is none.
func (t *Trained) P(at time.Time) int {
	for _, e := range t.entries {
		if at.After(e.Release.Timestamp) {
			continue
		}
		return e.P
	}
	return DefaultP
}

// PredictIV predicts the injected version of a ticket opened at created and
// resolved at resolved. The result is not clamped and may fall below 1.
func (t *Trained) PredictIV(created, resolved time.Time) int {
	fv := t.idx.NextAfter(resolved)
	ov := t.idx.NextAfter(created)
	return Predict(fv, ov, t.P(resolved))
}

// Predict applies the Proportion formula to explicit version ordinals.
func Predict(fixed, opening, p int) int {
	if fixed == opening {
		return fixed - p
	}
	return fixed - (fixed-opening)*p
}
