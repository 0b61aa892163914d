// Package render provides the page renderers the anchor collector uses.
//
// Two implementations are available:
//   - APIRenderer asks a MediaWiki installation to parse a page through
//     api.php (action=parse) and returns the HTML it produces.
//   - LocalRenderer reads the page from the document store and converts
//     its markup to HTML itself: section headings, anchor templates and
//     inline id-bearing tags for wikitext, blackfriday for markdown.
//
// Both report a page that does not exist with ErrPageMissing.
package render
