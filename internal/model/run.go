package model

import "time"

// Run is one execution of the broken hash-link pipeline over a namespace.
type Run struct {
	// ID is the history row id once the run has been saved; 0 before.
	ID int64 `json:"id,omitempty"`

	// Namespace is the namespace whose pages were scanned as origins.
	Namespace int `json:"namespace"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Report holds the broken hash-links found.
	Report *BrokenLinkReport `json:"report"`

	// Stats holds counters collected along the stages.
	Stats RunStats `json:"stats"`

	// Timings holds the duration of each stage, in execution order.
	Timings []StageTiming `json:"timings,omitempty"`

	// Total is the wall time of the whole run.
	Total time.Duration `json:"total"`
}

// RunStats counts what each stage processed.
type RunStats struct {
	OriginPages         int `json:"origin_pages"`
	OriginPagesWithText int `json:"origin_pages_with_text"`
	HashLinks           int `json:"hash_links"`
	TargetPages         int `json:"target_pages"`
	RenderFailures      int `json:"render_failures"`
	BrokenHashLinks     int `json:"broken_hash_links"`
	BrokenTargetPages   int `json:"broken_target_pages"`
}

// StageTiming is the measured duration of one pipeline stage.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// NewRun creates a Run for namespace with an empty report.
func NewRun(namespace int) *Run {
	return &Run{
		Namespace: namespace,
		StartedAt: time.Now(),
		Report:    NewBrokenLinkReport(),
	}
}
