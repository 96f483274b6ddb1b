// Package output renders command results as text tables, markdown, JSON,
// TOON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	toon "github.com/toon-format/toon-go"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTOON     Format = "toon"
	FormatYAML     Format = "yaml"
)

// ParseFormat converts a string to Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	case "toon":
		return FormatTOON
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// Renderable defines data that can render itself in multiple formats.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	// RenderData returns the underlying data for structured formats.
	RenderData() any
}

// Formatter handles output formatting.
type Formatter struct {
	format  Format
	writer  io.Writer
	file    *os.File
	colored bool
}

// NewFormatter writes to output, or to stdout when output is empty.
// Files never receive color codes.
func NewFormatter(format Format, output string, colored bool) (*Formatter, error) {
	if output == "" {
		return NewWriterFormatter(format, os.Stdout, colored), nil
	}
	f, err := os.Create(output)
	if err != nil {
		return nil, err
	}
	return &Formatter{format: format, writer: f, file: f}, nil
}

// NewWriterFormatter writes to w.
func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, writer: w, colored: colored}
}

// Close closes the formatter's writer if it's a file.
func (f *Formatter) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

// Writer returns the underlying writer.
func (f *Formatter) Writer() io.Writer {
	return f.writer
}

// Format returns the configured format.
func (f *Formatter) Format() Format {
	return f.format
}

// Output writes data in the configured format.
func (f *Formatter) Output(data any) error {
	r, ok := data.(Renderable)
	if !ok {
		return f.structured(data)
	}
	switch f.format {
	case FormatMarkdown:
		return r.RenderMarkdown(f.writer)
	case FormatText:
		return r.RenderText(f.writer, f.colored)
	default:
		return f.structured(r.RenderData())
	}
}

func (f *Formatter) structured(data any) error {
	switch f.format {
	case FormatTOON:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return fmt.Errorf("encode toon: %w", err)
		}
		_, err = fmt.Fprintln(f.writer, string(out))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(f.writer)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatMarkdown:
		fmt.Fprintln(f.writer, "```json")
		if err := f.outputJSON(data); err != nil {
			return err
		}
		fmt.Fprintln(f.writer, "```")
		return nil
	default:
		return f.outputJSON(data)
	}
}

func (f *Formatter) outputJSON(data any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Table is a Renderable table with headers, rows, and optional footer.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  []string
	// Data is serialized by structured formats in place of the rows.
	Data any
}

// NewTable creates a table that wraps structured data for serialization.
func NewTable(title string, headers []string, rows [][]string, footer []string, data any) *Table {
	return &Table{
		Title:   title,
		Headers: headers,
		Rows:    rows,
		Footer:  footer,
		Data:    data,
	}
}

func (t *Table) RenderData() any {
	if t.Data != nil {
		return t.Data
	}
	result := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]string)
		for j, h := range t.Headers {
			if j < len(row) {
				m[h] = row[j]
			}
		}
		result[i] = m
	}
	return result
}

func (t *Table) RenderText(w io.Writer, colored bool) error {
	if t.Title != "" {
		if colored {
			color.New(color.Bold).Fprintln(w, t.Title)
		} else {
			fmt.Fprintln(w, t.Title)
		}
		fmt.Fprintln(w, strings.Repeat("=", len(t.Title)))
		fmt.Fprintln(w)
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Footer: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{
				Left:   tw.Off,
				Right:  tw.Off,
				Top:    tw.Off,
				Bottom: tw.Off,
			},
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		}),
	)

	table.Header(t.Headers)
	for _, row := range t.Rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if len(t.Footer) > 0 {
		footer := make([]any, len(t.Footer))
		for i, f := range t.Footer {
			footer[i] = f
		}
		table.Footer(footer...)
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", t.Title)
	}

	fmt.Fprintf(w, "| %s |\n", strings.Join(t.Headers, " | "))
	seps := make([]string, len(t.Headers))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, row := range t.Rows {
		fmt.Fprintf(w, "| %s |\n", strings.Join(row, " | "))
	}
	if len(t.Footer) > 0 {
		fmt.Fprintf(w, "| %s |\n", strings.Join(t.Footer, " | "))
	}

	fmt.Fprintln(w)
	return nil
}

// Report is a titled sequence of tables.
type Report struct {
	Title  string
	Tables []*Table
	Data   any
}

func (r *Report) RenderData() any {
	if r.Data != nil {
		return r.Data
	}
	parts := make(map[string]any, len(r.Tables))
	for _, t := range r.Tables {
		parts[t.Title] = t.RenderData()
	}
	return parts
}

func (r *Report) RenderText(w io.Writer, colored bool) error {
	if r.Title != "" {
		if colored {
			color.New(color.Bold, color.FgCyan).Fprintln(w, r.Title)
		} else {
			fmt.Fprintln(w, r.Title)
		}
		fmt.Fprintln(w)
	}
	for _, t := range r.Tables {
		if err := t.RenderText(w, colored); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) RenderMarkdown(w io.Writer) error {
	if r.Title != "" {
		fmt.Fprintf(w, "# %s\n\n", r.Title)
	}
	for _, t := range r.Tables {
		if err := t.RenderMarkdown(w); err != nil {
			return err
		}
	}
	return nil
}

// Message helpers for colored status lines

func (f *Formatter) Success(format string, args ...any) {
	if f.colored {
		color.New(color.FgGreen).Fprintf(f.writer, format+"\n", args...)
	} else {
		fmt.Fprintf(f.writer, format+"\n", args...)
	}
}

func (f *Formatter) Warning(format string, args ...any) {
	if f.colored {
		color.New(color.FgYellow).Fprintf(f.writer, format+"\n", args...)
	} else {
		fmt.Fprintf(f.writer, "WARNING: "+format+"\n", args...)
	}
}

func (f *Formatter) Error(format string, args ...any) {
	if f.colored {
		color.New(color.FgRed).Fprintf(f.writer, format+"\n", args...)
	} else {
		fmt.Fprintf(f.writer, "ERROR: "+format+"\n", args...)
	}
}

// BuggyColor highlights a buggy label.
func BuggyColor(buggy bool, text string) string {
	if buggy {
		return color.RedString(text)
	}
	return text
}
