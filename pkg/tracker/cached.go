package tracker

import (
	"context"
	"errors"

	"github.com/panbanda/defectmine/internal/cache"
	"github.com/panbanda/defectmine/pkg/models"
	"github.com/sirupsen/logrus"
)

// Cached serves tickets from a snapshot cache and falls back to the wrapped
// source on a miss. Reusing a snapshot keeps repeated runs reproducible.
type Cached struct {
	source Source
	cache  *cache.Cache
	prefix string
	logger logrus.FieldLogger
}

// NewCached wraps source. prefix distinguishes trackers sharing a cache.
func NewCached(source Source, c *cache.Cache, prefix string, logger logrus.FieldLogger) *Cached {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Cached{source: source, cache: c, prefix: prefix, logger: logger}
}

// Tickets implements Source.
func (c *Cached) Tickets(ctx context.Context, project string) ([]models.Ticket, error) {
	key := c.prefix + "/" + project
	log := c.logger.WithField("project", project)

	var tickets []models.Ticket
	ok, err := c.cache.Load(key, &tickets)
	switch {
	case err != nil && !errors.Is(err, cache.ErrCorrupt):
		return nil, err
	case err != nil:
		log.WithError(err).Warn("discarding ticket snapshot")
	case ok:
		log.WithField("tickets", len(tickets)).Debug("ticket snapshot hit")
		return tickets, nil
	}

	tickets, err = c.source.Tickets(ctx, project)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Store(key, tickets); err != nil {
		log.WithError(err).Warn("storing ticket snapshot")
	}
	return tickets, nil
}
