package extract

import (
	"regexp"
	"strings"

	"github.com/nao1215/wantedanchors/internal/model"
)

// hashLinkPattern matches a bracket link whose target portion holds a '#'.
// Group 1 is the target (possibly empty), group 2 the fragment. An optional
// "|label" may follow before the closing brackets.
var hashLinkPattern = regexp.MustCompile(
	`\[\[([\p{L}\p{N}_\s\-,&/()]*)#([\p{L}\p{N}_\s\-,&'/()]+)(?:\|[^\]]*)?\]\]`,
)

// linkTargetPattern captures the target portion of any bracket link.
var linkTargetPattern = regexp.MustCompile(`\[\[([^\[\]|#]*)`)

// Extractor turns page markup into normalized references.
type Extractor struct {
	// capitalLinks upper-cases the first letter of target names.
	capitalLinks bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithCapitalLinks makes the extractor treat the first letter of a target
// name as case-insensitive by upper-casing it.
func WithCapitalLinks(enabled bool) Option {
	return func(e *Extractor) {
		e.capitalLinks = enabled
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the distinct hash-link references found in text, in order
// of first appearance. A link without an explicit target refers to origin.
// Empty text yields nil.
func (e *Extractor) Extract(origin, text string) []model.Reference {
	if text == "" {
		return nil
	}

	matches := hashLinkPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[model.Reference]struct{}, len(matches))
	refs := make([]model.Reference, 0, len(matches))
	for _, m := range matches {
		ref, ok := e.normalize(origin, m[1], m[2])
		if !ok {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

// normalize builds the reference for one matched link.
func (e *Extractor) normalize(origin, target, fragment string) (model.Reference, bool) {
	target = strings.TrimSpace(target)
	fragment = strings.TrimSpace(model.DisplayName(fragment))
	if fragment == "" {
		return "", false
	}
	if target == "" {
		target = origin
	}
	target = model.NormalizeTitle(target, e.capitalLinks)
	return model.NewReference(target, fragment), true
}

// LinkTargets returns the distinct, non-empty target names of every bracket
// link in text, in display form. Namespaced and interwiki targets (those
// containing ':') are left out.
func LinkTargets(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range linkTargetPattern.FindAllStringSubmatch(text, -1) {
		t := strings.TrimSpace(model.DisplayName(m[1]))
		if t == "" || strings.Contains(t, ":") {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// LinkTargets is the package-level LinkTargets with the extractor's title
// normalization applied.
func (e *Extractor) LinkTargets(text string) []string {
	targets := LinkTargets(text)
	if !e.capitalLinks {
		return targets
	}
	seen := make(map[string]struct{}, len(targets))
	out := targets[:0]
	for _, t := range targets {
		t = model.NormalizeTitle(t, true)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
