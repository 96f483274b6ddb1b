package models

import (
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

// Release is a tag placed in the chronological ordinal space.
// Ordinals are dense and start at 1.
type Release struct {
	Ordinal   int           `json:"ordinal"`
	Name      string        `json:"name"`
	Timestamp time.Time     `json:"timestamp"`
	Commit    plumbing.Hash `json:"commit"`
}

// After reports whether the release was cut strictly after t.
func (r Release) After(t time.Time) bool {
	return r.Timestamp.After(t)
}
