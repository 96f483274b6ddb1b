package vcs

import (
	"errors"
	"fmt"
)

// ErrInvalidType is returned when a type assertion fails for vcs types.
var ErrInvalidType = errors.New("invalid type")

// RepositoryAccessError reports a tag, commit, tree or blob that could not be
// read from the repository. It is always fatal for the current run.
type RepositoryAccessError struct {
	Op  string
	Ref string
	Err error
}

func (e *RepositoryAccessError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("repository access: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("repository access: %s %s: %v", e.Op, e.Ref, e.Err)
}

func (e *RepositoryAccessError) Unwrap() error {
	return e.Err
}

func accessError(op, ref string, err error) error {
	return &RepositoryAccessError{Op: op, Ref: ref, Err: err}
}

// IsAccessError reports whether err carries a *RepositoryAccessError.
func IsAccessError(err error) bool {
	var target *RepositoryAccessError
	return errors.As(err, &target)
}
