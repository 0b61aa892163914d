package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/wantedanchors/internal/anchor"
	"github.com/nao1215/wantedanchors/internal/extract"
	"github.com/nao1215/wantedanchors/internal/hashlink"
	"github.com/nao1215/wantedanchors/internal/model"
)

// Stage names, in execution order.
const (
	StageLocateOrigins  = "locate-origin-pages"
	StageLoadContent    = "load-content-origin-pages"
	StageExtract        = "extract-hashlinks-from-origin-pages"
	StageGroupTargets   = "group-target-pages"
	StageParseTargets   = "parse-target-pages"
	StageCollectAnchors = "collect-all-anchors"
	StagePrepareReport  = "prepare-report"
)

// DocumentStore is the corpus the origin pages come from.
type DocumentStore interface {
	// ListLinkingOrigins returns the pages of namespace that link into it.
	ListLinkingOrigins(ctx context.Context, namespace int) ([]model.OriginPage, error)

	// FetchTexts loads text blobs by id. Unknown ids are absent.
	FetchTexts(ctx context.Context, ids []int64) (map[int64]string, error)
}

// LocateOriginsStep lists the origin pages of the run's namespace.
type LocateOriginsStep struct {
	store DocumentStore
}

// NewLocateOriginsStep creates a LocateOriginsStep.
func NewLocateOriginsStep(store DocumentStore) *LocateOriginsStep {
	return &LocateOriginsStep{store: store}
}

// Name implements Step.
func (s *LocateOriginsStep) Name() string {
	return StageLocateOrigins
}

// Do implements Step.
func (s *LocateOriginsStep) Do(ctx context.Context, state *State) error {
	origins, err := s.store.ListLinkingOrigins(ctx, state.Run.Namespace)
	if err != nil {
		return fmt.Errorf("failed to list origin pages: %w", err)
	}
	state.Origins = origins
	state.Run.Stats.OriginPages = len(origins)
	return nil
}

// LoadContentStep fetches the text of every origin page in one bulk call.
type LoadContentStep struct {
	store DocumentStore
}

// NewLoadContentStep creates a LoadContentStep.
func NewLoadContentStep(store DocumentStore) *LoadContentStep {
	return &LoadContentStep{store: store}
}

// Name implements Step.
func (s *LoadContentStep) Name() string {
	return StageLoadContent
}

// Do implements Step. Origins without a text address, or whose text row is
// missing, become documents without text.
func (s *LoadContentStep) Do(ctx context.Context, state *State) error {
	ids := make([]int64, 0, len(state.Origins))
	for _, o := range state.Origins {
		if o.HasTextID {
			ids = append(ids, o.TextID)
		}
	}

	texts := map[int64]string{}
	if len(ids) > 0 {
		var err error
		texts, err = s.store.FetchTexts(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to fetch origin texts: %w", err)
		}
	}

	docs := make([]model.Document, 0, len(state.Origins))
	withText := 0
	for _, o := range state.Origins {
		doc := model.Document{Name: o.Name}
		if o.HasTextID {
			doc.Text, doc.HasText = texts[o.TextID]
		}
		if doc.HasText {
			withText++
		}
		docs = append(docs, doc)
	}

	state.Documents = docs
	state.Run.Stats.OriginPagesWithText = withText
	return nil
}

// ExtractStep builds the origin index from the loaded documents.
type ExtractStep struct {
	extractor hashlink.Extractor
}

// NewExtractStep creates an ExtractStep. A nil extractor means extract.New().
func NewExtractStep(ex hashlink.Extractor) *ExtractStep {
	if ex == nil {
		ex = extract.New()
	}
	return &ExtractStep{extractor: ex}
}

// Name implements Step.
func (s *ExtractStep) Name() string {
	return StageExtract
}

// Do implements Step.
func (s *ExtractStep) Do(_ context.Context, state *State) error {
	state.Index = hashlink.BuildOriginIndex(state.Documents, s.extractor)
	state.Run.Stats.HashLinks = state.Index.Len()
	return nil
}

// GroupTargetsStep regroups the origin index by target page.
type GroupTargetsStep struct{}

// NewGroupTargetsStep creates a GroupTargetsStep.
func NewGroupTargetsStep() *GroupTargetsStep {
	return &GroupTargetsStep{}
}

// Name implements Step.
func (s *GroupTargetsStep) Name() string {
	return StageGroupTargets
}

// Do implements Step.
func (s *GroupTargetsStep) Do(_ context.Context, state *State) error {
	if state.Index == nil {
		state.Index = model.NewOriginIndex()
	}
	state.Groups = hashlink.GroupByTarget(state.Index)
	state.Run.Stats.TargetPages = state.Groups.Len()
	return nil
}

// ParseTargetsStep renders every target page and collects its anchors.
type ParseTargetsStep struct {
	collector *anchor.Collector
}

// NewParseTargetsStep creates a ParseTargetsStep.
func NewParseTargetsStep(collector *anchor.Collector) *ParseTargetsStep {
	return &ParseTargetsStep{collector: collector}
}

// Name implements Step.
func (s *ParseTargetsStep) Name() string {
	return StageParseTargets
}

// Do implements Step. Render failures are absorbed by the collector; only
// cancellation of ctx is returned.
func (s *ParseTargetsStep) Do(ctx context.Context, state *State) error {
	if state.Groups == nil {
		state.Groups = model.NewTargetGroup()
	}
	before := s.collector.Failures()
	anchors, err := s.collector.CollectAll(ctx, state.Groups.Targets())
	if err != nil {
		return err
	}
	state.Anchors = anchors
	state.Run.Stats.RenderFailures = s.collector.Failures() - before
	return nil
}

// CollectAnchorsStep gathers the anchors of every target page into one
// set of "target#id" references.
type CollectAnchorsStep struct{}

// NewCollectAnchorsStep creates a CollectAnchorsStep.
func NewCollectAnchorsStep() *CollectAnchorsStep {
	return &CollectAnchorsStep{}
}

// Name implements Step.
func (s *CollectAnchorsStep) Name() string {
	return StageCollectAnchors
}

// Do implements Step.
func (s *CollectAnchorsStep) Do(_ context.Context, state *State) error {
	if state.Groups == nil {
		state.Groups = model.NewTargetGroup()
	}
	state.Found = hashlink.CollectAnchors(state.Groups.Targets(), state.Anchors)
	return nil
}

// PrepareReportStep resolves the broken references into the run's report.
type PrepareReportStep struct{}

// NewPrepareReportStep creates a PrepareReportStep.
func NewPrepareReportStep() *PrepareReportStep {
	return &PrepareReportStep{}
}

// Name implements Step.
func (s *PrepareReportStep) Name() string {
	return StagePrepareReport
}

// Do implements Step. Pipelines without a collect stage resolve against
// the per-target anchors directly.
func (s *PrepareReportStep) Do(_ context.Context, state *State) error {
	if state.Groups == nil {
		state.Groups = model.NewTargetGroup()
	}
	found := state.Found
	if found == nil {
		found = hashlink.CollectAnchors(state.Groups.Targets(), state.Anchors)
	}
	report := hashlink.ResolveFound(state.Groups, found)
	state.Run.Report = report
	state.Run.Stats.BrokenHashLinks = report.LinkCount()
	state.Run.Stats.BrokenTargetPages = report.TargetCount()
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// CapitalLinks upper-cases the first letter of link targets.
	CapitalLinks bool

	// RenderTimeout bounds each render call.
	RenderTimeout time.Duration

	// Concurrency is the number of renders run at once.
	Concurrency int

	// Logger receives the collector's per-target failure records.
	Logger *slog.Logger
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineCapitalLinks sets first-letter case folding of targets.
func WithPipelineCapitalLinks(enabled bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CapitalLinks = enabled
	}
}

// WithPipelineRenderTimeout sets the timeout of each render call.
func WithPipelineRenderTimeout(d time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.RenderTimeout = d
	}
}

// WithPipelineConcurrency sets how many target pages render at once.
func WithPipelineConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Concurrency = n
	}
}

// WithPipelineLogger sets the logger handed to the anchor collector.
func WithPipelineLogger(logger *slog.Logger) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Logger = logger
	}
}

// DefaultPipeline creates a pipeline with the seven stages wired to store
// and renderer. Each call gets a fresh anchor collector, so anchors are
// memoized within a run and never across runs.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineConcurrency, etc).
func DefaultPipeline(store DocumentStore, renderer anchor.Renderer, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		RenderTimeout: anchor.DefaultTimeout,
		Concurrency:   anchor.DefaultConcurrency,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	collectorOpts := []anchor.Option{
		anchor.WithTimeout(cfg.RenderTimeout),
		anchor.WithConcurrency(cfg.Concurrency),
	}
	if cfg.Logger != nil {
		collectorOpts = append(collectorOpts, anchor.WithLogger(cfg.Logger))
	}

	p.AddSteps(
		NewLocateOriginsStep(store),
		NewLoadContentStep(store),
		NewExtractStep(extract.New(extract.WithCapitalLinks(cfg.CapitalLinks))),
		NewGroupTargetsStep(),
		NewParseTargetsStep(anchor.NewCollector(renderer, collectorOpts...)),
		NewCollectAnchorsStep(),
		NewPrepareReportStep(),
	)

	return p
}

// Run executes p over namespace and returns the finished run.
func Run(ctx context.Context, p *Pipeline, namespace int) (*model.Run, error) {
	state := NewState(namespace)
	if err := p.Execute(ctx, state); err != nil {
		return nil, err
	}
	return state.Run, nil
}
