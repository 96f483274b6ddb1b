package loc

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// CodeCounter counts the rows that hold at least one non-comment token.
// Blank lines and comment-only lines are ignored. Files in a language it
// cannot parse fall back to physical lines.
type CodeCounter struct{}

// NewCodeCounter creates a CodeCounter.
func NewCodeCounter() *CodeCounter {
	return &CodeCounter{}
}

// Count implements Counter.
func (c *CodeCounter) Count(ctx context.Context, path string, content []byte) (int, error) {
	lang := DetectLanguage(path)
	tsLang := grammar(lang)
	if tsLang == nil {
		return PhysicalLines(content), nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(tsLang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	comments := commentTypes(lang)
	rows := make(map[uint32]struct{})
	walk(tree.RootNode(), comments, rows)
	return len(rows), nil
}

func walk(node *sitter.Node, comments map[string]bool, rows map[uint32]struct{}) {
	if node == nil || comments[node.Type()] {
		return
	}
	n := int(node.ChildCount())
	if n == 0 {
		if node.StartByte() == node.EndByte() {
			return
		}
		for r := node.StartPoint().Row; r <= node.EndPoint().Row; r++ {
			rows[r] = struct{}{}
		}
		return
	}
	for i := range n {
		walk(node.Child(i), comments, rows)
	}
}
