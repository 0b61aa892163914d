package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/wantedanchors/internal/model"
)

// WikitextWriter outputs wiki markup: a nested list of targets, broken
// hash-links and their origins followed by a wikitable of stage timings.
type WikitextWriter struct {
	baseWriter
}

// NewWikitextWriter creates a WikitextWriter that outputs to the given writer.
func NewWikitextWriter(output io.Writer) *WikitextWriter {
	return &WikitextWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run as wikitext.
func (w *WikitextWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "The following %s broken hash-links.\n\n",
		pluralVerb(run.Report.TargetCount(), "page has", "pages have"))

	for _, entry := range run.Report.Entries() {
		fmt.Fprintf(&sb, "* [[%s]], %s\n", entry.Target, plural(len(entry.Links), "broken hash-link"))
		for _, link := range entry.Links {
			fmt.Fprintf(&sb, "** [[%s]], linked from %s\n", link.Reference, plural(len(link.Origins), "page"))
			for _, origin := range link.Origins {
				fmt.Fprintf(&sb, "*** [[%s]]\n", origin)
			}
		}
	}

	if len(run.Timings) > 0 {
		sb.WriteString("\n")
		w.writePerfTable(&sb, run)
	}

	return w.output.Write([]byte(sb.String()))
}

// WriteDiff outputs the changes between two runs as wikitext lists.
func (w *WikitextWriter) WriteDiff(previous, current *model.Run) (int, error) {
	var sb strings.Builder

	if sameDigest(previous, current) {
		sb.WriteString("No change since the previous run.\n")
		return w.output.Write([]byte(sb.String()))
	}

	diff := diffOf(previous, current)
	fmt.Fprintf(&sb, "== Newly broken (%d) ==\n", len(diff.NewlyBroken))
	for _, l := range diff.NewlyBroken {
		fmt.Fprintf(&sb, "* [[%s]]\n", l.Reference)
		for _, origin := range l.Origins {
			fmt.Fprintf(&sb, "** [[%s]]\n", origin)
		}
	}
	fmt.Fprintf(&sb, "== Fixed (%d) ==\n", len(diff.Fixed))
	for _, l := range diff.Fixed {
		fmt.Fprintf(&sb, "* [[%s]]\n", l.Reference)
	}
	fmt.Fprintf(&sb, "Still broken: %d\n", diff.UnchangedCount)

	return w.output.Write([]byte(sb.String()))
}

func (w *WikitextWriter) writePerfTable(sb *strings.Builder, run *model.Run) {
	sb.WriteString("{| class=\"wikitable\"\n")
	sb.WriteString("|+ Performance\n")
	sb.WriteString("! Phase !! Time\n")
	for _, t := range run.Timings {
		sb.WriteString("|-\n")
		fmt.Fprintf(sb, "| %s || %s\n", stageLabel(t.Stage), formatSeconds(t.Duration))
	}
	sb.WriteString("|-\n")
	fmt.Fprintf(sb, "| Total || %s\n", formatSeconds(run.Total))
	sb.WriteString("|}\n")
}

// pluralVerb returns "n singular" or "n pluralForm".
func pluralVerb(n int, singular, pluralForm string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, pluralForm)
}
