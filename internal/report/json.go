package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/wantedanchors/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	indentPrefix string
	indentString string

	// version is embedded in every document when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion embeds the wantedanchors version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport wraps a run with output metadata.
type JSONReport struct {
	// Version is the wantedanchors version that generated this report.
	Version string `json:"version,omitempty"`

	// Digest identifies the set of broken hash-links.
	Digest string `json:"digest"`

	// Run is the complete run.
	Run *model.Run `json:"run"`
}

// JSONDiff is the JSON form of a comparison between two runs.
type JSONDiff struct {
	Version    string           `json:"version,omitempty"`
	PreviousID int64            `json:"previous_id,omitempty"`
	CurrentID  int64            `json:"current_id,omitempty"`
	Unchanged  bool             `json:"unchanged"`
	Diff       model.ReportDiff `json:"diff"`
}

// Write outputs the run wrapped with metadata.
func (w *JSONWriter) Write(run *model.Run) (int, error) {
	return w.writeJSON(&JSONReport{
		Version: w.version,
		Digest:  run.Report.Digest(),
		Run:     run,
	})
}

// WriteDiff outputs the comparison of two runs.
func (w *JSONWriter) WriteDiff(previous, current *model.Run) (int, error) {
	d := &JSONDiff{
		Version:   w.version,
		Unchanged: sameDigest(previous, current),
		Diff:      diffOf(previous, current),
	}
	if previous != nil {
		d.PreviousID = previous.ID
	}
	if current != nil {
		d.CurrentID = current.ID
	}
	return w.writeJSON(d)
}

// writeJSON marshals v and writes it with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
