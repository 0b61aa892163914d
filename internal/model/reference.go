package model

import "strings"

// Reference is a normalized hash-link of the form "Target#fragment".
// The target never contains '#', so the first '#' always separates the
// two parts.
type Reference string

// NewReference joins a target page name and a fragment into a Reference.
func NewReference(target, fragment string) Reference {
	return Reference(target + "#" + fragment)
}

// Split returns the target page name and the fragment of the reference.
// A reference without '#' yields the whole string as target and an empty
// fragment.
func (r Reference) Split() (target, fragment string) {
	s := string(r)
	i := strings.IndexByte(s, '#')
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// Target returns the target page name of the reference.
func (r Reference) Target() string {
	t, _ := r.Split()
	return t
}

// Fragment returns the fragment of the reference.
func (r Reference) Fragment() string {
	_, f := r.Split()
	return f
}

// String implements fmt.Stringer.
func (r Reference) String() string {
	return string(r)
}

// ReferenceSet is a set of references, such as every anchor found among
// the rendered target pages.
type ReferenceSet map[Reference]struct{}

// Contains reports whether ref is in the set.
func (s ReferenceSet) Contains(ref Reference) bool {
	_, ok := s[ref]
	return ok
}
