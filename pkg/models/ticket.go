package models

import "time"

// Ticket is a fixed bug report as returned by the issue tracker.
type Ticket struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	ResolvedAt       time.Time `json:"resolved_at"`
	AffectedVersions []string  `json:"affected_versions"`
}

// HasAffectedVersions reports whether the tracker recorded any affected version.
func (t Ticket) HasAffectedVersions() bool {
	return len(t.AffectedVersions) > 0
}
