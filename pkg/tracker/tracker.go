// Package tracker fetches fixed bug tickets from an issue tracker.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panbanda/defectmine/pkg/models"
)

// ErrTicketDate is returned when a ticket carries a date that does not start
// with yyyy-MM-dd. It aborts the run.
var ErrTicketDate = errors.New("unparseable ticket date")

// Source returns every fixed bug of a project.
type Source interface {
	Tickets(ctx context.Context, project string) ([]models.Ticket, error)
}

// Kind names a tracker implementation.
type Kind string

const (
	KindJira   Kind = "jira"
	KindGitHub Kind = "github"
	KindFile   Kind = "file"
)

const dateLayout = "2006-01-02"

// ParseDate reads the leading calendar date of s as UTC midnight. Anything
// after the first ten characters, such as a time of day, is ignored.
func ParseDate(s string) (time.Time, error) {
	if len(s) < len(dateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTicketDate, s)
	}
	t, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTicketDate, s)
	}
	return t, nil
}

// dateOnly drops the time of day so API timestamps compare like Jira dates.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
