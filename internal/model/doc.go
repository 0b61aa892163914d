// Package model defines the data structures shared by the wantedanchors
// stages.
//
// This package contains the following main types:
//   - Document: a page of the corpus with its optional raw text
//   - Reference: a normalized "Target#fragment" hash-link
//   - OriginIndex: reference -> origin pages that contain it
//   - TargetGroup: target page -> references into it -> origins
//   - AnchorSet / AnchorIndex: identifiers a rendered target exposes
//   - BrokenLinkReport: the final target -> reference -> origins mapping
//   - Run: one pipeline execution with its report, counters and timings
//
// Every keyed collection here keeps first-insertion order so that two runs
// over the same corpus produce the same report, key for key.
package model
