// Package progress renders per-window progress on stderr.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar over a known number of steps.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
	out   io.Writer
}

// Options configures a Tracker.
type Options struct {
	Writer io.Writer
	// Hidden suppresses rendering, e.g. when logging at debug level.
	Hidden bool
}

// NewTracker creates a progress bar with the given label and total count.
func NewTracker(label string, total int, opts Options) *Tracker {
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetVisibility(!opts.Hidden),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, label: label, out: out}
}

// Step sets the description to the item being worked on.
func (t *Tracker) Step(item string) {
	t.bar.Describe(fmt.Sprintf("%s %s", t.label, item))
}

// Tick increments the progress by 1.
func (t *Tracker) Tick() {
	_ = t.bar.Add(1)
}

// Current returns the number of completed steps.
func (t *Tracker) Current() int64 {
	return t.bar.State().CurrentNum
}

// FinishSuccess clears the bar completely.
func (t *Tracker) FinishSuccess() {
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}

// FinishError clears the bar and prints the error.
func (t *Tracker) FinishError(err error) {
	_ = t.bar.Finish()
	_ = t.bar.Clear()
	fmt.Fprintf(t.out, "  %s error: %v\n", t.label, err)
}
