package model

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MainNamespace is the namespace of ordinary content pages.
const MainNamespace = 0

// Document is a page of the corpus as seen by the link extractor.
type Document struct {
	// Name is the page title as stored, underscores included.
	Name string `json:"name"`

	// Text is the raw markup of the page's current revision.
	// Only meaningful when HasText is true.
	Text string `json:"-"`

	// HasText is false when the store had no retrievable content for the page.
	HasText bool `json:"has_text"`
}

// OriginPage is a page listed by the document store as containing links,
// together with the address of its text blob.
type OriginPage struct {
	// PageID is the store's identifier of the page.
	PageID int64 `json:"page_id"`

	// Name is the page title as stored.
	Name string `json:"name"`

	// TextID is the id of the text blob holding the page's markup.
	TextID int64 `json:"text_id"`

	// HasTextID is false when the page has no addressable text blob.
	HasTextID bool `json:"has_text_id"`
}

// DisplayName converts a stored page name to its display form.
// Underscores and spaces are interchangeable in page names; spaces win.
func DisplayName(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

// StorageName converts a display name to the underscore form used by the
// store and by rendered identifiers.
func StorageName(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

var firstLetterCaser = cases.Upper(language.Und)

// NormalizeTitle returns the display form of a page name. When capitalLinks
// is set the first letter is upper-cased, matching wikis that treat
// "foo" and "Foo" as the same page.
func NormalizeTitle(name string, capitalLinks bool) string {
	name = DisplayName(name)
	if !capitalLinks || name == "" {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return firstLetterCaser.String(name[:size]) + name[size:]
}

// Content models understood by the local renderer.
const (
	ContentModelWikitext = "wikitext"
	ContentModelMarkdown = "markdown"
)

// PageContent is the current markup of a page as held by the store.
type PageContent struct {
	// Namespace is the page's namespace number.
	Namespace int `json:"namespace"`

	// Title is the stored title, underscores included.
	Title string `json:"title"`

	// ContentModel names the markup language of Text.
	ContentModel string `json:"content_model"`

	// Text is the raw markup.
	Text string `json:"text"`
}
