package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/wantedanchors/internal/model"
)

// pieChartSlices caps the number of targets drawn in the pie chart.
const pieChartSlices = 10

// MarkdownWriter outputs reports in Markdown format using the
// nao1215/markdown builder.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeAlert(md, run.Report)
	w.writeBrokenLinks(md, run.Report)
	w.writeTimings(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteDiff outputs the changes between two runs in Markdown format.
func (w *MarkdownWriter) WriteDiff(previous, current *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)
	diff := diffOf(previous, current)

	md.H1("Wanted Anchors: Changes")
	md.PlainText("")

	if sameDigest(previous, current) {
		md.Tip("Both runs found the same broken hash-links.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	md.Table(markdown.TableSet{
		Header: []string{"Change", "Count"},
		Rows: [][]string{
			{"Newly broken", strconv.Itoa(len(diff.NewlyBroken))},
			{"Fixed", strconv.Itoa(len(diff.Fixed))},
			{"Still broken", strconv.Itoa(diff.UnchangedCount)},
		},
	})
	md.PlainText("")

	if len(diff.NewlyBroken) > 0 {
		md.H2("Newly broken")
		md.PlainText("")
		items := make([]string, 0, len(diff.NewlyBroken))
		for _, l := range diff.NewlyBroken {
			items = append(items, markdown.Code(l.Reference.String())+" from "+strings.Join(l.Origins, ", "))
		}
		md.BulletList(items...)
		md.PlainText("")
	}
	if len(diff.Fixed) > 0 {
		md.H2("Fixed")
		md.PlainText("")
		items := make([]string, 0, len(diff.Fixed))
		for _, l := range diff.Fixed {
			items = append(items, markdown.Code(l.Reference.String()))
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("Wanted Anchors Report")
	md.PlainText("")

	rows := [][]string{
		{"Namespace", strconv.Itoa(run.Namespace)},
		{"Run Date", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Target pages with broken hash-links", strconv.Itoa(run.Report.TargetCount())},
		{"Broken hash-links", strconv.Itoa(run.Report.LinkCount())},
		{"Origin pages scanned", strconv.Itoa(run.Stats.OriginPages)},
		{"Render failures", strconv.Itoa(run.Stats.RenderFailures)},
	}
	if run.ID != 0 {
		rows = append(rows, []string{"Run", "#" + strconv.FormatInt(run.ID, 10)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.BrokenLinkReport) {
	switch {
	case report.IsEmpty():
		md.Tip("No broken hash-links found.")
	case report.TargetCount() == 1:
		md.Warningf("%s into 1 target page.", plural(report.LinkCount(), "broken hash-link"))
	default:
		md.Cautionf("%s into %d target pages.", plural(report.LinkCount(), "broken hash-link"), report.TargetCount())
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeBrokenLinks(md *markdown.Markdown, report *model.BrokenLinkReport) {
	if report.IsEmpty() {
		return
	}

	md.H2("Broken hash-links")
	md.PlainText("")

	if report.TargetCount() > 1 {
		w.writePieChart(md, report)
	}

	for _, entry := range report.Entries() {
		md.H3(entry.Target)
		md.PlainText("")

		rows := make([][]string, 0, len(entry.Links))
		for _, link := range entry.Links {
			rows = append(rows, []string{
				markdown.Code(link.Reference.String()),
				strings.Join(link.Origins, ", "),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Hash-link", "Linked from"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writePieChart draws the share of broken hash-links per target for the
// largest targets in report order.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.BrokenLinkReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Broken hash-links per target page"),
		piechart.WithShowData(true),
	)

	entries := report.Entries()
	rest := 0
	for i, entry := range entries {
		if i < pieChartSlices {
			chart.LabelAndIntValue(entry.Target, uint64(len(entry.Links)))
			continue
		}
		rest += len(entry.Links)
	}
	if rest > 0 {
		chart.LabelAndIntValue("Other", uint64(rest))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeTimings(md *markdown.Markdown, run *model.Run) {
	if len(run.Timings) == 0 {
		return
	}

	rows := make([][]string, 0, len(run.Timings)+1)
	for _, t := range run.Timings {
		rows = append(rows, []string{stageLabel(t.Stage), formatSeconds(t.Duration)})
	}
	rows = append(rows, []string{markdown.Bold("Total"), markdown.Bold(formatSeconds(run.Total))})

	md.Details("Performance", "\n"+markdown.NewMarkdown(io.Discard).Table(markdown.TableSet{
		Header: []string{"Phase", "Time"},
		Rows:   rows,
	}).String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [wantedanchors](https://github.com/nao1215/wantedanchors)*")
}
