package model

// OriginSet is an insertion-ordered set of origin page names.
type OriginSet struct {
	names []string
	seen  map[string]struct{}
}

// NewOriginSet creates an OriginSet holding names, duplicates dropped.
func NewOriginSet(names ...string) *OriginSet {
	s := &OriginSet{seen: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name if absent and reports whether it was inserted.
func (s *OriginSet) Add(name string) bool {
	if _, ok := s.seen[name]; ok {
		return false
	}
	s.seen[name] = struct{}{}
	s.names = append(s.names, name)
	return true
}

// Contains reports whether name is in the set.
func (s *OriginSet) Contains(name string) bool {
	_, ok := s.seen[name]
	return ok
}

// Len returns the number of names in the set.
func (s *OriginSet) Len() int {
	return len(s.names)
}

// Names returns a copy of the names in first-insertion order.
func (s *OriginSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// OriginIndex maps each reference to the set of pages that contain it.
// A reference is present only once it has at least one origin.
type OriginIndex struct {
	refs    []Reference
	origins map[Reference]*OriginSet
}

// NewOriginIndex creates an empty OriginIndex.
func NewOriginIndex() *OriginIndex {
	return &OriginIndex{origins: make(map[Reference]*OriginSet)}
}

// Add records origin as containing ref.
func (idx *OriginIndex) Add(ref Reference, origin string) {
	set, ok := idx.origins[ref]
	if !ok {
		set = NewOriginSet()
		idx.origins[ref] = set
		idx.refs = append(idx.refs, ref)
	}
	set.Add(origin)
}

// Len returns the number of distinct references.
func (idx *OriginIndex) Len() int {
	return len(idx.refs)
}

// References returns the references in first-insertion order.
func (idx *OriginIndex) References() []Reference {
	out := make([]Reference, len(idx.refs))
	copy(out, idx.refs)
	return out
}

// Origins returns the origins of ref in first-seen order, or nil.
func (idx *OriginIndex) Origins(ref Reference) []string {
	set, ok := idx.origins[ref]
	if !ok {
		return nil
	}
	return set.Names()
}

// TargetGroup is the OriginIndex regrouped by target page.
type TargetGroup struct {
	targets []string
	refs    map[string][]Reference
	origins map[Reference][]string
}

// NewTargetGroup creates an empty TargetGroup.
func NewTargetGroup() *TargetGroup {
	return &TargetGroup{
		refs:    make(map[string][]Reference),
		origins: make(map[Reference][]string),
	}
}

// Add files ref with its origins under target. Adding the same reference
// twice replaces its origins and keeps its position.
func (g *TargetGroup) Add(target string, ref Reference, origins []string) {
	if _, ok := g.refs[target]; !ok {
		g.targets = append(g.targets, target)
		g.refs[target] = nil
	}
	if _, ok := g.origins[ref]; !ok {
		g.refs[target] = append(g.refs[target], ref)
	}
	cp := make([]string, len(origins))
	copy(cp, origins)
	g.origins[ref] = cp
}

// Targets returns the target page names in first-insertion order.
func (g *TargetGroup) Targets() []string {
	out := make([]string, len(g.targets))
	copy(out, g.targets)
	return out
}

// References returns the references into target in first-insertion order.
func (g *TargetGroup) References(target string) []Reference {
	refs := g.refs[target]
	out := make([]Reference, len(refs))
	copy(out, refs)
	return out
}

// Origins returns the origins recorded for ref.
func (g *TargetGroup) Origins(ref Reference) []string {
	o := g.origins[ref]
	out := make([]string, len(o))
	copy(out, o)
	return out
}

// Len returns the number of distinct targets.
func (g *TargetGroup) Len() int {
	return len(g.targets)
}

// ReferenceCount returns the total number of references across targets.
func (g *TargetGroup) ReferenceCount() int {
	return len(g.origins)
}

// AnchorSet is the set of normalized identifiers a rendered page exposes.
type AnchorSet map[string]struct{}

// NewAnchorSet creates an AnchorSet holding ids.
func NewAnchorSet(ids ...string) AnchorSet {
	s := make(AnchorSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set.
func (s AnchorSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// AnchorIndex maps target page names to their anchor sets.
type AnchorIndex map[string]AnchorSet

// Anchors returns the anchors of target. Unknown targets have none.
func (a AnchorIndex) Anchors(target string) AnchorSet {
	if s, ok := a[target]; ok {
		return s
	}
	return AnchorSet{}
}
