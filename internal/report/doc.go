// Package report renders runs of the broken hash-link search.
//
// This package contains writers for different output formats:
//   - TextWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown for issues and documentation
//   - WikitextWriter: Wiki markup ready to paste into a maintenance page
//
// Writers never reorder anything: targets, references and origins come out
// in the order the report holds them.
package report
