package render

import (
	"context"
	"fmt"

	"github.com/russross/blackfriday/v2"

	"github.com/nao1215/wantedanchors/internal/model"
)

// PageSource looks pages up by namespace and title. It returns nil, nil
// when the page does not exist.
type PageSource interface {
	PageContent(ctx context.Context, namespace int, title string) (*model.PageContent, error)
}

// LocalRenderer renders pages from a PageSource without a wiki server.
type LocalRenderer struct {
	source    PageSource
	namespace int
}

// NewLocalRenderer creates a LocalRenderer reading target pages of
// namespace from source.
func NewLocalRenderer(source PageSource, namespace int) *LocalRenderer {
	return &LocalRenderer{source: source, namespace: namespace}
}

// Render returns the HTML of page.
func (r *LocalRenderer) Render(ctx context.Context, page string) (string, error) {
	content, err := r.source.PageContent(ctx, r.namespace, model.StorageName(page))
	if err != nil {
		return "", err
	}
	if content == nil {
		return "", fmt.Errorf("%w: %s", ErrPageMissing, page)
	}

	switch content.ContentModel {
	case model.ContentModelWikitext, "":
		return WikitextToHTML(content.Text), nil
	case model.ContentModelMarkdown:
		return MarkdownToHTML(content.Text), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContentModel, content.ContentModel)
	}
}

// MarkdownToHTML renders markdown with generated heading ids.
func MarkdownToHTML(text string) string {
	out := blackfriday.Run([]byte(text),
		blackfriday.WithExtensions(blackfriday.CommonExtensions|blackfriday.AutoHeadingIDs),
	)
	return string(out)
}
