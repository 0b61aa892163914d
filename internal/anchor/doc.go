// Package anchor collects the identifiers that rendered pages expose.
//
// The Collector renders each distinct target page at most once per run,
// runs renders concurrently up to a configured limit, and bounds every
// render with a timeout. A page that cannot be rendered, for whatever
// reason, exposes no anchors: every fragment pointing into it is then
// reported as broken, which is the signal a missing page should give.
//
// # Usage
//
//	c := anchor.NewCollector(renderer, anchor.WithConcurrency(8))
//	anchors, err := c.CollectAll(ctx, group.Targets())
package anchor
