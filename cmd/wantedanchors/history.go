package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/wantedanchors/internal/config"
	"github.com/nao1215/wantedanchors/internal/database"
	"github.com/nao1215/wantedanchors/internal/model"
)

// digestPrefixLen is how much of a digest the history listing shows.
const digestPrefixLen = 12

// errNotEnoughRuns is returned by --diff when the namespace has fewer than two runs.
var errNotEnoughRuns = errors.New("at least two saved runs are needed to compare (run 'wantedanchors scan' again)")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved runs and compare them",
		Long: `History lists the runs saved by scan for a namespace, newest first.

With --diff it compares the latest run with the one before it (or with the
run given by --with-run-id) and shows the hash-links that broke, the ones
that were fixed, and whether the report is unchanged.

Examples:
  # List the runs of the main namespace
  wantedanchors history

  # What changed since the previous scan?
  wantedanchors history --diff

  # Compare the latest run with run 3, as Markdown
  wantedanchors history --diff --with-run-id 3 --markdown

  # Print the report of run 5 again
  wantedanchors history --show 5`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	addStoreFlags(cmd)
	addFormatFlags(cmd)
	cmd.Flags().BoolP("diff", "d", false,
		"Compare the latest run with the previous one")
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare the latest run with this run instead of the previous one")
	cmd.Flags().Int64P("show", "s", 0,
		"Print the report of a saved run")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	diff, err := cmd.Flags().GetBool("diff")
	if err != nil {
		return err
	}
	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}
	showID, err := cmd.Flags().GetInt64("show")
	if err != nil {
		return err
	}

	db, err := openStore(cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case showID > 0:
		return showRun(ctx, db, cfg, showID, out)
	case diff || withRunID > 0:
		return diffRuns(ctx, db, cfg, withRunID, out)
	default:
		return listRuns(ctx, db, cfg.Namespace(), out)
	}
}

// listRuns prints the run history of namespace.
func listRuns(ctx context.Context, db *database.WikiDB, namespace int, out io.Writer) error {
	runs, err := db.ListRuns(ctx, namespace)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs saved for namespace %d\n", namespace)
		fmt.Fprintln(out, "\nUse 'wantedanchors scan' to create one.")
		return nil
	}

	fmt.Fprintf(out, "Run history for namespace %d (%d runs):\n\n", namespace, len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-8s  %-8s  %s\n", "ID", "Date", "Links", "Pages", "Digest")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 66))

	for _, meta := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-8d  %-8d  %s\n",
			meta.ID,
			meta.StartedAt.Local().Format("2006-01-02 15:04:05"),
			meta.BrokenLinks,
			meta.BrokenTargets,
			shortDigest(meta.Digest),
		)
	}

	fmt.Fprintln(out, "\nUse 'wantedanchors history --diff' to compare the latest two runs.")
	return nil
}

// showRun writes the report of a saved run.
func showRun(ctx context.Context, db *database.WikiDB, cfg *config.Config, id int64, out io.Writer) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %d not found", id)
	}

	writer, err := newReportWriter(cfg, out)
	if err != nil {
		return err
	}
	_, err = writer.Write(run)
	return err
}

// diffRuns compares the latest run of the namespace with the previous one,
// or with run withRunID when it is set.
func diffRuns(ctx context.Context, db *database.WikiDB, cfg *config.Config, withRunID int64, out io.Writer) error {
	previous, current, err := runsToCompare(ctx, db, cfg.Namespace(), withRunID)
	if err != nil {
		return err
	}

	writer, err := newReportWriter(cfg, out)
	if err != nil {
		return err
	}
	_, err = writer.WriteDiff(previous, current)
	return err
}

func runsToCompare(ctx context.Context, db *database.WikiDB, namespace int, withRunID int64) (previous, current *model.Run, err error) {
	if withRunID == 0 {
		latest, err := db.LatestRuns(ctx, namespace, 2)
		if err != nil {
			return nil, nil, err
		}
		if len(latest) < 2 {
			return nil, nil, errNotEnoughRuns
		}
		return latest[1], latest[0], nil
	}

	latest, err := db.LatestRuns(ctx, namespace, 1)
	if err != nil {
		return nil, nil, err
	}
	if len(latest) == 0 {
		return nil, nil, errNotEnoughRuns
	}
	previous, err = db.GetRun(ctx, withRunID)
	if err != nil {
		return nil, nil, err
	}
	if previous == nil {
		return nil, nil, fmt.Errorf("run %d not found", withRunID)
	}
	if previous.Namespace != namespace {
		return nil, nil, fmt.Errorf("run %d scanned namespace %d, not %d", withRunID, previous.Namespace, namespace)
	}
	return previous, latest[0], nil
}

func shortDigest(digest string) string {
	if len(digest) > digestPrefixLen {
		return digest[:digestPrefixLen]
	}
	return digest
}
