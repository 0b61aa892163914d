package render

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/wantedanchors/internal/model"
)

var (
	// headingPattern matches "== Title ==" lines. Unbalanced sides are
	// leveled down by headingParts.
	headingPattern = regexp.MustCompile(`^(={1,6})(.+?)(={1,6})\s*$`)

	// commentPattern matches HTML comments, which never reach the output.
	commentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)

	// spacePattern matches the whitespace runs a heading id collapses.
	spacePattern = regexp.MustCompile(`\s+`)

	// anchorTemplatePattern matches {{anchor|a|b|...}}.
	anchorTemplatePattern = regexp.MustCompile(`(?i)\{\{\s*anchors?\s*\|([^{}]*)\}\}`)

	// pipedLinkPattern and linkPattern strip link markup from heading text.
	pipedLinkPattern = regexp.MustCompile(`\[\[[^\[\]|]*\|([^\[\]]*)\]\]`)
	linkPattern      = regexp.MustCompile(`\[\[([^\[\]|]*)\]\]`)

	// tagPattern strips inline HTML tags from heading text.
	tagPattern = regexp.MustCompile(`<[^>]*>`)
)

// WikitextToHTML converts the parts of wikitext that produce identifiers
// into HTML: headings get an id derived from their text, anchor templates
// become empty spans and other lines pass through untouched so inline
// tags keep their own id attributes. Repeated headings get "_2", "_3"...
// suffixes as a wiki would give them, skipping ids already issued.
func WikitextToHTML(text string) string {
	var sb strings.Builder
	ids := newHeadingIDs()

	text = commentPattern.ReplaceAllString(text, "")

	sb.WriteString(`<div class="mw-parser-output">`)
	for _, line := range strings.Split(text, "\n") {
		line = anchorTemplatePattern.ReplaceAllStringFunc(line, anchorSpans)

		level, inner, ok := headingParts(line)
		if !ok {
			sb.WriteString(line)
			sb.WriteString("\n")
			continue
		}

		id := ids.issue(model.StorageName(headingText(inner)))

		// The inner markup passes through so tags inside the heading keep
		// their own ids.
		fmt.Fprintf(&sb, `<h%d><span class="mw-headline" id="%s">%s</span></h%d>`+"\n",
			level, html.EscapeString(id), inner, level)
	}
	sb.WriteString(`</div>`)

	return sb.String()
}

// headingParts splits a heading line into its level and inner markup.
// With unbalanced sides the level is the shorter run and the surplus "="
// stays in the text, so "==Foo===" is a level 2 heading "Foo=".
func headingParts(line string) (level int, inner string, ok bool) {
	m := headingPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	opening, closing := len(m[1]), len(m[3])
	level = min(opening, closing)
	inner = strings.Repeat("=", opening-level) + m[2] + strings.Repeat("=", closing-level)
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return 0, "", false
	}
	return level, inner, true
}

// headingIDs hands out unique heading ids within one page.
type headingIDs struct {
	issued map[string]struct{}
	counts map[string]int
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{
		issued: make(map[string]struct{}),
		counts: make(map[string]int),
	}
}

// issue returns base, or base_N with the lowest N > 1 not issued yet.
func (h *headingIDs) issue(base string) string {
	id := base
	for {
		if _, taken := h.issued[id]; !taken {
			break
		}
		h.counts[base]++
		id = fmt.Sprintf("%s_%d", base, h.counts[base]+1)
	}
	h.issued[id] = struct{}{}
	return id
}

// anchorSpans replaces one anchor template with one span per name.
func anchorSpans(tpl string) string {
	m := anchorTemplatePattern.FindStringSubmatch(tpl)
	var sb strings.Builder
	for _, name := range strings.Split(m[1], "|") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		fmt.Fprintf(&sb, `<span class="anchor" id="%s"></span>`, html.EscapeString(model.StorageName(name)))
	}
	return sb.String()
}

// headingText reduces heading markup to its displayed text.
func headingText(s string) string {
	s = pipedLinkPattern.ReplaceAllString(s, "$1")
	s = linkPattern.ReplaceAllString(s, "$1")
	s = tagPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "'''", "")
	s = strings.ReplaceAll(s, "''", "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
