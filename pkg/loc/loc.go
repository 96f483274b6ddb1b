// Package loc counts the lines of a source blob.
package loc

import (
	"bytes"
	"context"
	"fmt"
)

// Counter measures the size of one source file.
type Counter interface {
	Count(ctx context.Context, path string, content []byte) (int, error)
}

// Kind names a Counter implementation.
type Kind string

const (
	// KindPhysical counts every line, including blank and comment lines.
	KindPhysical Kind = "physical"
	// KindCode counts lines holding at least one non-comment token.
	KindCode Kind = "code"
)

// New returns the counter for kind.
func New(kind Kind) (Counter, error) {
	switch kind {
	case KindPhysical, "":
		return Physical{}, nil
	case KindCode:
		return NewCodeCounter(), nil
	default:
		return nil, fmt.Errorf("unknown line counter %q", kind)
	}
}

// Physical counts newline-terminated lines plus a trailing partial line.
type Physical struct{}

// Count implements Counter.
func (Physical) Count(_ context.Context, _ string, content []byte) (int, error) {
	return PhysicalLines(content), nil
}

// PhysicalLines is the line count a line reader would report for content.
func PhysicalLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
