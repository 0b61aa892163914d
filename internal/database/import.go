package database

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/wantedanchors/internal/model"
)

// LinkLister returns the page titles a markup text links to.
type LinkLister interface {
	LinkTargets(text string) []string
}

// contentModels maps file extensions to the content model of their pages.
var contentModels = map[string]string{
	".wiki":      model.ContentModelWikitext,
	".wikitext":  model.ContentModelWikitext,
	".mediawiki": model.ContentModelWikitext,
	".md":        model.ContentModelMarkdown,
	".markdown":  model.ContentModelMarkdown,
}

// ImportStats summarizes an ImportDir call.
type ImportStats struct {
	// Pages is the number of pages stored.
	Pages int

	// Links is the number of outgoing links recorded.
	Links int

	// Skipped is the number of files ignored for their extension.
	Skipped int
}

// ImportDir stores every wikitext or markdown file under dir as a page of
// namespace. The page title is the file path relative to dir without its
// extension. Files are visited in lexical order, so page ids follow it.
func (wdb *WikiDB) ImportDir(ctx context.Context, dir string, namespace int, links LinkLister) (ImportStats, error) {
	var stats ImportStats

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		contentModel, ok := contentModels[ext]
		if !ok {
			stats.Skipped++
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		title := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))

		data, err := os.ReadFile(path) //nolint:gosec // path comes from walking the import directory
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		text := string(data)
		targets := links.LinkTargets(text)

		if _, err := wdb.PutDocument(ctx, namespace, title, contentModel, text, targets); err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		stats.Pages++
		stats.Links += len(targets)
		return nil
	})
	if err != nil {
		return stats, err
	}

	return stats, nil
}
