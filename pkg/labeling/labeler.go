// Package labeling decides which (release, class) pairs were defective,
// from tracker-reported affected versions or a Proportion prediction.
package labeling

import (
	"context"
	"fmt"

	"github.com/panbanda/defectmine/pkg/models"
	"github.com/panbanda/defectmine/pkg/proportion"
	"github.com/panbanda/defectmine/pkg/release"
	"github.com/sirupsen/logrus"
)

// Labeler builds the BuggySet. It needs a fully trained Proportion table.
type Labeler struct {
	idx     *release.Index
	touches Toucher
	trained *proportion.Trained
	logger  logrus.FieldLogger
}

// NewLabeler creates a Labeler.
func NewLabeler(idx *release.Index, touches Toucher, trained *proportion.Trained, logger logrus.FieldLogger) *Labeler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Labeler{idx: idx, touches: touches, trained: trained, logger: logger}
}

// Label unions the buggy pairs of every ticket.
func (l *Labeler) Label(ctx context.Context, tickets []models.Ticket) (*BuggySet, error) {
	set := NewBuggySet()
	for _, t := range tickets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		classes, err := l.touches.Touched(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("ticket %s: %w", t.ID, err)
		}
		log := l.logger.WithField("ticket", t.ID)
		if len(classes) == 0 {
			log.Debug("no commits reference ticket")
			continue
		}

		releases := l.Releases(t)
		log.WithFields(logrus.Fields{
			"classes":  len(classes),
			"releases": releases,
			"reported": t.HasAffectedVersions(),
		}).Debug("labeling ticket")

		for _, r := range releases {
			for _, c := range classes {
				set.Add(r, c)
			}
		}
	}
	return set, nil
}

// Releases returns the ordinals a ticket marks as affected. Reported
// versions are matched by tag name; versions naming no tag are dropped.
// Without reported versions every release in [predictedIV, fixed) is
// affected.
func (l *Labeler) Releases(t models.Ticket) []int {
	var out []int
	if t.HasAffectedVersions() {
		for _, v := range t.AffectedVersions {
			if ord, ok := l.idx.Resolve(v); ok {
				out = append(out, ord)
			}
		}
		return out
	}

	predicted := l.trained.PredictIV(t.CreatedAt, t.ResolvedAt)
	fixed := l.idx.NextAfter(t.ResolvedAt)
	for _, r := range l.idx.Releases() {
		if r.Ordinal >= predicted && r.Ordinal < fixed {
			out = append(out, r.Ordinal)
		}
	}
	return out
}
