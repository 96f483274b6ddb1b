package models

import "fmt"

// CompositeKey joins every metric column and the buggy set.
// It is comparable and safe to use as a map key.
type CompositeKey struct {
	Release int    `json:"release"`
	Path    string `json:"class_name"`
}

// Key builds a CompositeKey.
func Key(release int, path string) CompositeKey {
	return CompositeKey{Release: release, Path: path}
}

func (k CompositeKey) String() string {
	return fmt.Sprintf("(%d, %s)", k.Release, k.Path)
}
