package hashlink

import (
	"github.com/nao1215/wantedanchors/internal/model"
)

// Extractor finds the references contained in one page's markup.
type Extractor interface {
	Extract(origin, text string) []model.Reference
}

// AnchorLookup returns the anchors a target page exposes.
type AnchorLookup interface {
	Anchors(target string) model.AnchorSet
}

// BuildOriginIndex runs ex over every document with text and records, for
// each reference found, the documents that contain it. Documents without
// text contribute nothing.
func BuildOriginIndex(docs []model.Document, ex Extractor) *model.OriginIndex {
	idx := model.NewOriginIndex()
	for _, doc := range docs {
		if !doc.HasText {
			continue
		}
		for _, ref := range ex.Extract(doc.Name, doc.Text) {
			idx.Add(ref, doc.Name)
		}
	}
	return idx
}

// GroupByTarget regroups idx by the target page of each reference.
// Targets that may not exist are kept; resolution decides about them.
func GroupByTarget(idx *model.OriginIndex) *model.TargetGroup {
	g := model.NewTargetGroup()
	for _, ref := range idx.References() {
		g.Add(ref.Target(), ref, idx.Origins(ref))
	}
	return g
}

// CollectAnchors gathers the anchors of targets into one set of full
// "target#id" references.
func CollectAnchors(targets []string, anchors AnchorLookup) model.ReferenceSet {
	found := model.ReferenceSet{}
	for _, target := range targets {
		for id := range anchors.Anchors(target) {
			found[model.NewReference(target, id)] = struct{}{}
		}
	}
	return found
}

// Resolve returns the references of g whose fragment is not among the
// anchors of their target. Targets left with no broken reference are
// omitted.
func Resolve(g *model.TargetGroup, anchors AnchorLookup) *model.BrokenLinkReport {
	return ResolveFound(g, CollectAnchors(g.Targets(), anchors))
}

// ResolveFound is Resolve over anchors already gathered by CollectAnchors.
func ResolveFound(g *model.TargetGroup, found model.ReferenceSet) *model.BrokenLinkReport {
	report := model.NewBrokenLinkReport()
	for _, target := range g.Targets() {
		for _, ref := range g.References(target) {
			if found.Contains(ref) {
				continue
			}
			report.Add(target, ref, g.Origins(ref))
		}
	}
	return report
}
