package report

import (
	"fmt"
	"io"
	"time"

	"github.com/nao1215/wantedanchors/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs one run: its broken hash-links, statistics and stage
	// timings. Returns the number of bytes written.
	Write(run *model.Run) (int, error)

	// WriteDiff outputs how the broken hash-links changed between two runs.
	WriteDiff(previous, current *model.Run) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteDiff outputs the diff to all configured Writers.
func (m *MultiWriter) WriteDiff(previous, current *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteDiff(previous, current)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// formatSeconds renders d as seconds with millisecond precision.
func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f sec", d.Seconds())
}

// stageLabels are the human names of the pipeline stages.
var stageLabels = map[string]string{
	"locate-origin-pages":                 "Locate origin pages",
	"load-content-origin-pages":           "Load content of origin pages",
	"extract-hashlinks-from-origin-pages": "Extract hash-links from origin pages",
	"group-target-pages":                  "Group target pages",
	"parse-target-pages":                  "Parse target pages",
	"collect-all-anchors":                 "Collect all anchors",
	"prepare-report":                      "Prepare report",
}

// stageLabel returns the human name of stage, or stage itself.
func stageLabel(stage string) string {
	if label, ok := stageLabels[stage]; ok {
		return label
	}
	return stage
}

// plural returns "n word" with a trailing "s" unless n is 1.
func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// diffOf returns the diff of two runs. A nil previous run counts as empty.
func diffOf(previous, current *model.Run) model.ReportDiff {
	prev := model.NewBrokenLinkReport()
	if previous != nil && previous.Report != nil {
		prev = previous.Report
	}
	cur := model.NewBrokenLinkReport()
	if current != nil && current.Report != nil {
		cur = current.Report
	}
	return model.DiffReports(prev, cur)
}

// sameDigest reports whether both runs found exactly the same broken links.
func sameDigest(previous, current *model.Run) bool {
	if previous == nil || current == nil || previous.Report == nil || current.Report == nil {
		return false
	}
	return previous.Report.Digest() == current.Report.Digest()
}
