package window

import (
	"strings"

	"github.com/panbanda/defectmine/internal/vcs"
)

// EditType classifies a contiguous changed region of a file.
type EditType int

const (
	// Insert adds lines without removing any.
	Insert EditType = iota
	// Delete removes lines without adding any.
	Delete
	// Replace removes lines and adds others in their place.
	Replace
)

func (t EditType) String() string {
	switch t {
	case Insert:
		return "INSERT"
	case Delete:
		return "DELETE"
	default:
		return "REPLACE"
	}
}

// Edit is one changed region. LengthA counts lines on the old side,
// LengthB lines on the new side.
type Edit struct {
	LengthA int
	LengthB int
}

// Type derives the edit type from the range lengths.
func (e Edit) Type() EditType {
	switch {
	case e.LengthA == 0:
		return Insert
	case e.LengthB == 0:
		return Delete
	default:
		return Replace
	}
}

// Span is LengthA + LengthB.
func (e Edit) Span() int {
	return e.LengthA + e.LengthB
}

// Edits collapses the chunks of a file patch into edits. Adjacent add and
// delete chunks form one edit; equal chunks separate edits. Binary patches
// have no line edits.
func Edits(fp vcs.FilePatch) []Edit {
	if fp == nil || fp.IsBinary() {
		return nil
	}

	var (
		edits []Edit
		cur   Edit
		open  bool
	)
	for _, c := range fp.Chunks() {
		switch c.Type() {
		case vcs.ChunkAdd:
			cur.LengthB += countLines(c.Content())
			open = true
		case vcs.ChunkDelete:
			cur.LengthA += countLines(c.Content())
			open = true
		default:
			if open {
				edits = append(edits, cur)
				cur, open = Edit{}, false
			}
		}
	}
	if open {
		edits = append(edits, cur)
	}
	return edits
}

// countLines counts newline-terminated lines plus a trailing partial line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
