package model

import (
	"encoding/hex"
	"encoding/json"
	"slices"

	"golang.org/x/crypto/sha3"
)

// BrokenLinkReport maps each target page that has broken hash-links to
// those references and the pages linking through them.
// Targets without broken references never appear.
type BrokenLinkReport struct {
	targets []string
	refs    map[string][]Reference
	origins map[Reference][]string
}

// BrokenTarget is the serialized form of one target of the report.
type BrokenTarget struct {
	// Target is the display name of the target page.
	Target string `json:"target"`

	// Links lists the broken references into Target.
	Links []BrokenLink `json:"links"`
}

// BrokenLink is one broken reference with the pages containing it.
type BrokenLink struct {
	// Reference is the "Target#fragment" string.
	Reference Reference `json:"reference"`

	// Origins are the display names of the pages containing Reference.
	Origins []string `json:"origins"`
}

// NewBrokenLinkReport creates an empty report.
func NewBrokenLinkReport() *BrokenLinkReport {
	return &BrokenLinkReport{
		refs:    make(map[string][]Reference),
		origins: make(map[Reference][]string),
	}
}

// Add records ref under target as broken, with its origins. Origins are
// deduplicated after display-name normalization, keeping first-seen order.
func (r *BrokenLinkReport) Add(target string, ref Reference, origins []string) {
	if _, ok := r.refs[target]; !ok {
		r.targets = append(r.targets, target)
		r.refs[target] = nil
	}
	if _, ok := r.origins[ref]; !ok {
		r.refs[target] = append(r.refs[target], ref)
	}
	set := NewOriginSet()
	for _, o := range origins {
		set.Add(DisplayName(o))
	}
	r.origins[ref] = set.Names()
}

// Targets returns the targets in first-insertion order.
func (r *BrokenLinkReport) Targets() []string {
	return slices.Clone(r.targets)
}

// References returns the broken references into target.
func (r *BrokenLinkReport) References(target string) []Reference {
	return slices.Clone(r.refs[target])
}

// Origins returns the origins of a broken reference.
func (r *BrokenLinkReport) Origins(ref Reference) []string {
	return slices.Clone(r.origins[ref])
}

// Has reports whether ref is listed as broken.
func (r *BrokenLinkReport) Has(ref Reference) bool {
	_, ok := r.origins[ref]
	return ok
}

// TargetCount returns the number of targets with broken references.
func (r *BrokenLinkReport) TargetCount() int {
	return len(r.targets)
}

// LinkCount returns the total number of broken references.
func (r *BrokenLinkReport) LinkCount() int {
	return len(r.origins)
}

// IsEmpty reports whether no broken reference was found.
func (r *BrokenLinkReport) IsEmpty() bool {
	return len(r.targets) == 0
}

// Entries returns the report in its serialized, ordered form.
func (r *BrokenLinkReport) Entries() []BrokenTarget {
	out := make([]BrokenTarget, 0, len(r.targets))
	for _, t := range r.targets {
		entry := BrokenTarget{Target: t, Links: make([]BrokenLink, 0, len(r.refs[t]))}
		for _, ref := range r.refs[t] {
			entry.Links = append(entry.Links, BrokenLink{Reference: ref, Origins: slices.Clone(r.origins[ref])})
		}
		out = append(out, entry)
	}
	return out
}

// Equal reports whether both reports hold the same targets, references and
// origins in the same order.
func (r *BrokenLinkReport) Equal(other *BrokenLinkReport) bool {
	if r == nil || other == nil {
		return r == other
	}
	if !slices.Equal(r.targets, other.targets) {
		return false
	}
	for _, t := range r.targets {
		if !slices.Equal(r.refs[t], other.refs[t]) {
			return false
		}
		for _, ref := range r.refs[t] {
			if !slices.Equal(r.origins[ref], other.origins[ref]) {
				return false
			}
		}
	}
	return true
}

// Digest returns the hex SHA3-256 of the report's JSON form. Two reports
// with equal content have equal digests.
func (r *BrokenLinkReport) Digest() string {
	data, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MarshalJSON encodes the report as an ordered list of targets.
func (r *BrokenLinkReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Entries())
}

// UnmarshalJSON decodes a report produced by MarshalJSON.
func (r *BrokenLinkReport) UnmarshalJSON(data []byte) error {
	var entries []BrokenTarget
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*r = *NewBrokenLinkReport()
	for _, e := range entries {
		for _, l := range e.Links {
			r.Add(e.Target, l.Reference, l.Origins)
		}
	}
	return nil
}

// ReportDiff lists how broken references changed between two reports.
type ReportDiff struct {
	// NewlyBroken are references broken in the current report only.
	NewlyBroken []BrokenLink `json:"newly_broken,omitempty"`

	// Fixed are references broken in the previous report only.
	Fixed []BrokenLink `json:"fixed,omitempty"`

	// UnchangedCount is the number of references broken in both.
	UnchangedCount int `json:"unchanged_count"`
}

// DiffReports compares a previous report with a current one.
func DiffReports(previous, current *BrokenLinkReport) ReportDiff {
	var d ReportDiff
	for _, e := range current.Entries() {
		for _, l := range e.Links {
			if previous.Has(l.Reference) {
				d.UnchangedCount++
				continue
			}
			d.NewlyBroken = append(d.NewlyBroken, l)
		}
	}
	for _, e := range previous.Entries() {
		for _, l := range e.Links {
			if !current.Has(l.Reference) {
				d.Fixed = append(d.Fixed, l)
			}
		}
	}
	return d
}
