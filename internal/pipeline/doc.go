// Package pipeline runs the broken hash-link search as a sequence of named
// stages over a shared State.
//
// The stages, in order:
//   - locate-origin-pages: list pages that link inside the namespace
//   - load-content-origin-pages: bulk-load their text
//   - extract-hashlinks-from-origin-pages: build the origin index
//   - group-target-pages: regroup references by target page
//   - parse-target-pages: render every target once and extract its ids
//   - collect-all-anchors: gather the ids of all targets into one set
//   - prepare-report: keep the references whose fragment has no anchor
//
// Only document store failures abort a run. Render failures leave the
// target with no anchors and are counted in the run statistics.
package pipeline
