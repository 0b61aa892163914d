package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Format names an output format.
type Format string

// Supported output formats.
const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatWikitext Format = "wikitext"
)

// ErrUnknownFormat is returned for a format name ParseFormat does not know.
var ErrUnknownFormat = errors.New("unknown report format")

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatMarkdown, FormatWikitext}
}

// ParseFormat parses a format name. The empty string means text; "md" and
// "wiki" are accepted as short names.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "wikitext", "wiki":
		return FormatWikitext, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// NewWriter creates the writer for format. Version is embedded where the
// format carries it.
func NewWriter(format Format, output io.Writer, version string) (Writer, error) {
	switch format {
	case FormatText:
		return NewTextWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint(), WithVersion(version)), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatWikitext:
		return NewWikitextWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}
