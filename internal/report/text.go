package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/wantedanchors/internal/model"
)

// TextWriter outputs human-readable text reports for terminal display.
type TextWriter struct {
	baseWriter

	// showTimings adds the stage timing table.
	showTimings bool

	// verbose adds the run statistics.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithTimings toggles the stage timing table.
func WithTimings(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showTimings = show
	}
}

// WithVerbose enables the run statistics section.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter:  newBaseWriter(output),
		showTimings: true,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run in human-readable format.
func (w *TextWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeBrokenLinks(&sb, run.Report)
	if w.verbose {
		w.writeStats(&sb, run.Stats)
	}
	if w.showTimings {
		w.writeTimings(&sb, run)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteDiff outputs the changes between two runs.
func (w *TextWriter) WriteDiff(previous, current *model.Run) (int, error) {
	var sb strings.Builder
	diff := diffOf(previous, current)

	sb.WriteString(section("CHANGES SINCE PREVIOUS RUN"))
	if previous != nil && current != nil {
		fmt.Fprintf(&sb, "Previous run: #%d (%s)\n", previous.ID, previous.StartedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(&sb, "Current run:  #%d (%s)\n\n", current.ID, current.StartedAt.Format("2006-01-02 15:04:05 MST"))
	}

	if sameDigest(previous, current) {
		sb.WriteString("  Unchanged: both runs found the same broken hash-links.\n\n")
		return w.output.Write([]byte(sb.String()))
	}

	fmt.Fprintf(&sb, "  Newly broken: %d\n", len(diff.NewlyBroken))
	for _, l := range diff.NewlyBroken {
		fmt.Fprintf(&sb, "    [+] %s (from %s)\n", l.Reference, strings.Join(l.Origins, ", "))
	}
	fmt.Fprintf(&sb, "  Fixed:        %d\n", len(diff.Fixed))
	for _, l := range diff.Fixed {
		fmt.Fprintf(&sb, "    [-] %s\n", l.Reference)
	}
	fmt.Fprintf(&sb, "  Still broken: %d\n\n", diff.UnchangedCount)

	return w.output.Write([]byte(sb.String()))
}

// section returns a titled rule block.
func section(title string) string {
	rule := strings.Repeat("-", 70)
	return rule + "\n" + title + "\n" + rule + "\n\n"
}

func (w *TextWriter) writeHeader(sb *strings.Builder, run *model.Run) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       WANTED ANCHORS REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Namespace:      %d\n", run.Namespace)
	fmt.Fprintf(sb, "Run Date:       %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if run.ID != 0 {
		fmt.Fprintf(sb, "Run:            #%d\n", run.ID)
	}
	fmt.Fprintf(sb, "Target Pages:   %s with broken hash-links\n", plural(run.Report.TargetCount(), "page"))
	sb.WriteString("\n")
}

func (w *TextWriter) writeBrokenLinks(sb *strings.Builder, report *model.BrokenLinkReport) {
	sb.WriteString(section("BROKEN HASH-LINKS"))

	if report.IsEmpty() {
		sb.WriteString("  No broken hash-links found\n\n")
		return
	}

	for _, entry := range report.Entries() {
		fmt.Fprintf(sb, "* %s, %s\n", entry.Target, plural(len(entry.Links), "broken hash-link"))
		for _, link := range entry.Links {
			fmt.Fprintf(sb, "  ** %s, linked from %s\n", link.Reference, plural(len(link.Origins), "page"))
			for _, origin := range link.Origins {
				fmt.Fprintf(sb, "     *** %s\n", origin)
			}
		}
	}
	sb.WriteString("\n")
}

func (w *TextWriter) writeStats(sb *strings.Builder, stats model.RunStats) {
	sb.WriteString(section("STATISTICS"))
	fmt.Fprintf(sb, "  Origin pages:            %d\n", stats.OriginPages)
	fmt.Fprintf(sb, "  Origin pages with text:  %d\n", stats.OriginPagesWithText)
	fmt.Fprintf(sb, "  Hash-links:              %d\n", stats.HashLinks)
	fmt.Fprintf(sb, "  Target pages:            %d\n", stats.TargetPages)
	fmt.Fprintf(sb, "  Render failures:         %d\n", stats.RenderFailures)
	fmt.Fprintf(sb, "  Broken hash-links:       %d\n", stats.BrokenHashLinks)
	fmt.Fprintf(sb, "  Broken target pages:     %d\n", stats.BrokenTargetPages)
	sb.WriteString("\n")
}

func (w *TextWriter) writeTimings(sb *strings.Builder, run *model.Run) {
	if len(run.Timings) == 0 {
		return
	}
	sb.WriteString(section("PERFORMANCE"))
	for _, t := range run.Timings {
		fmt.Fprintf(sb, "  %-40s %s\n", stageLabel(t.Stage), formatSeconds(t.Duration))
	}
	fmt.Fprintf(sb, "  %-40s %s\n", "Total", formatSeconds(run.Total))
	sb.WriteString("\n")
}

func (w *TextWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by wantedanchors\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
