package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/panbanda/defectmine/pkg/models"
)

// File reads a saved Jira search response, so runs can be replayed
// without network access. The project argument is ignored.
type File struct {
	path string
}

// NewFile creates a File source.
func NewFile(path string) *File {
	return &File{path: path}
}

// Tickets implements Source.
func (f *File) Tickets(_ context.Context, _ string) ([]models.Ticket, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read tickets file: %w", err)
	}
	var result searchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode tickets file %s: %w", f.path, err)
	}
	tickets := make([]models.Ticket, 0, len(result.Issues))
	for _, issue := range result.Issues {
		t, err := issue.ticket()
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}
