package models

import (
	"path"
	"strings"
)

// DefaultExtension is the source extension mined when none is configured.
const DefaultExtension = "java"

// DefaultExclusions mark paths holding test code.
var DefaultExclusions = []string{"/test", "Test"}

// ClassFilter decides which repository paths are ClassUnits.
// A ClassUnit is identified by its path only; a moved file is a new unit.
type ClassFilter struct {
	Extension string
	Exclude   []string
}

// NewClassFilter returns a filter for extension (without dot) and exclusion substrings.
func NewClassFilter(extension string, exclude []string) ClassFilter {
	return ClassFilter{
		Extension: strings.TrimPrefix(extension, "."),
		Exclude:   exclude,
	}
}

// DefaultClassFilter matches non-test Java sources.
func DefaultClassFilter() ClassFilter {
	return NewClassFilter(DefaultExtension, DefaultExclusions)
}

// Valid reports whether p is a ClassUnit.
func (f ClassFilter) Valid(p string) bool {
	if p == "" {
		return false
	}
	ext := path.Ext(p)
	if ext == "" || ext[1:] != f.Extension {
		return false
	}
	for _, sub := range f.Exclude {
		if sub != "" && strings.Contains(p, sub) {
			return false
		}
	}
	return true
}
