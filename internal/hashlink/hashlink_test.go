package hashlink

import (
	"slices"
	"testing"

	"github.com/nao1215/wantedanchors/internal/extract"
	"github.com/nao1215/wantedanchors/internal/model"
)

// scenarioCorpus is page A linking to an existing section of B and to a
// missing section of itself.
func scenarioCorpus() []model.Document {
	return []model.Document{
		{Name: "A", Text: "See [[B#setup]] and [[#local]].", HasText: true},
		{Name: "B", Text: "== setup ==", HasText: true},
	}
}

func TestBuildOriginIndex(t *testing.T) {
	t.Parallel()

	t.Run("scenario", func(t *testing.T) {
		t.Parallel()

		idx := BuildOriginIndex(scenarioCorpus(), extract.New())

		want := []model.Reference{"B#setup", "A#local"}
		if got := idx.References(); !slices.Equal(got, want) {
			t.Fatalf("references: got %v, expected %v", got, want)
		}
		for _, ref := range want {
			if got := idx.Origins(ref); !slices.Equal(got, []string{"A"}) {
				t.Errorf("%s origins: got %v", ref, got)
			}
		}
	})

	t.Run("skips documents without text", func(t *testing.T) {
		t.Parallel()

		docs := []model.Document{
			{Name: "Ghost", Text: "[[B#x]]", HasText: false},
			{Name: "Empty", HasText: true},
		}
		if idx := BuildOriginIndex(docs, extract.New()); idx.Len() != 0 {
			t.Errorf("expected empty index, got %v", idx.References())
		}
	})

	t.Run("merges origins across documents", func(t *testing.T) {
		t.Parallel()

		docs := []model.Document{
			{Name: "A", Text: "[[C#x]] [[C#x]]", HasText: true},
			{Name: "B", Text: "[[C#x|x]]", HasText: true},
		}
		idx := BuildOriginIndex(docs, extract.New())
		if got := idx.Origins("C#x"); !slices.Equal(got, []string{"A", "B"}) {
			t.Errorf("got %v", got)
		}
	})
}

func TestGroupByTarget(t *testing.T) {
	t.Parallel()

	idx := BuildOriginIndex(scenarioCorpus(), extract.New())
	g := GroupByTarget(idx)

	if got := g.Targets(); !slices.Equal(got, []string{"B", "A"}) {
		t.Fatalf("targets: got %v", got)
	}
	if got := g.References("B"); !slices.Equal(got, []model.Reference{"B#setup"}) {
		t.Errorf("B: got %v", got)
	}
	if got := g.References("A"); !slices.Equal(got, []model.Reference{"A#local"}) {
		t.Errorf("A: got %v", got)
	}
	if g.ReferenceCount() != idx.Len() {
		t.Errorf("grouping lost references: %d vs %d", g.ReferenceCount(), idx.Len())
	}
	if got := g.Origins("A#local"); !slices.Equal(got, []string{"A"}) {
		t.Errorf("A#local origins: got %v", got)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("scenario", func(t *testing.T) {
		t.Parallel()

		g := GroupByTarget(BuildOriginIndex(scenarioCorpus(), extract.New()))
		anchors := model.AnchorIndex{
			"B": model.NewAnchorSet("setup"),
			"A": model.NewAnchorSet(),
		}

		report := Resolve(g, anchors)

		if got := report.Targets(); !slices.Equal(got, []string{"A"}) {
			t.Fatalf("targets: got %v", got)
		}
		if got := report.References("A"); !slices.Equal(got, []model.Reference{"A#local"}) {
			t.Errorf("references: got %v", got)
		}
		if got := report.Origins("A#local"); !slices.Equal(got, []string{"A"}) {
			t.Errorf("origins: got %v", got)
		}
		if report.Has("B#setup") {
			t.Error("B#setup resolves and must not be reported")
		}
	})

	t.Run("missing target reports every fragment", func(t *testing.T) {
		t.Parallel()

		docs := []model.Document{
			{Name: "A", Text: "[[C#x]] [[C#y]]", HasText: true},
			{Name: "B", Text: "[[C#x]]", HasText: true},
		}
		g := GroupByTarget(BuildOriginIndex(docs, extract.New()))

		report := Resolve(g, model.AnchorIndex{})

		if got := report.References("C"); !slices.Equal(got, []model.Reference{"C#x", "C#y"}) {
			t.Errorf("references: got %v", got)
		}
		if got := report.Origins("C#x"); !slices.Equal(got, []string{"A", "B"}) {
			t.Errorf("origins: got %v", got)
		}
	})

	t.Run("fully resolved target is omitted", func(t *testing.T) {
		t.Parallel()

		docs := []model.Document{{Name: "A", Text: "[[B#one]] [[B#two]]", HasText: true}}
		g := GroupByTarget(BuildOriginIndex(docs, extract.New()))

		report := Resolve(g, model.AnchorIndex{"B": model.NewAnchorSet("one", "two", "three")})

		if !report.IsEmpty() {
			t.Errorf("expected empty report, got %v", report.Targets())
		}
	})

	t.Run("anchors of another target do not resolve", func(t *testing.T) {
		t.Parallel()

		docs := []model.Document{{Name: "A", Text: "[[B#one]]", HasText: true}}
		g := GroupByTarget(BuildOriginIndex(docs, extract.New()))

		report := Resolve(g, model.AnchorIndex{"C": model.NewAnchorSet("one")})

		if !report.Has("B#one") {
			t.Error("expected B#one to be broken")
		}
	})

	t.Run("origins are shown with spaces", func(t *testing.T) {
		t.Parallel()

		docs := []model.Document{{Name: "Foo_Bar", Text: "[[C#x]]", HasText: true}}
		g := GroupByTarget(BuildOriginIndex(docs, extract.New()))

		report := Resolve(g, model.AnchorIndex{})

		if got := report.Origins("C#x"); !slices.Equal(got, []string{"Foo Bar"}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		run := func() *model.BrokenLinkReport {
			g := GroupByTarget(BuildOriginIndex(scenarioCorpus(), extract.New()))
			return Resolve(g, model.AnchorIndex{"B": model.NewAnchorSet("setup")})
		}
		if !run().Equal(run()) {
			t.Error("expected identical reports")
		}
	})
}

func TestCollectAnchors(t *testing.T) {
	t.Parallel()

	anchors := model.AnchorIndex{
		"B": model.NewAnchorSet("setup", "usage"),
		"C": model.NewAnchorSet("x"),
		"D": model.NewAnchorSet("ignored"),
	}

	found := CollectAnchors([]string{"B", "C", "Missing"}, anchors)

	for _, ref := range []model.Reference{"B#setup", "B#usage", "C#x"} {
		if !found.Contains(ref) {
			t.Errorf("expected %s in %v", ref, found)
		}
	}
	if found.Contains("D#ignored") {
		t.Error("anchors of targets not asked for must not be collected")
	}
	if len(found) != 3 {
		t.Errorf("got %d references, want 3", len(found))
	}
}

func TestResolveFound(t *testing.T) {
	t.Parallel()

	docs := []model.Document{{Name: "A", Text: "[[B#one]] [[B#two]] [[C#one]]", HasText: true}}
	g := GroupByTarget(BuildOriginIndex(docs, extract.New()))

	report := ResolveFound(g, model.ReferenceSet{"B#one": {}, "C#two": {}})

	if got := report.References("B"); !slices.Equal(got, []model.Reference{"B#two"}) {
		t.Errorf("B references: got %v", got)
	}
	if !report.Has("C#one") {
		t.Error("expected C#one to be broken")
	}
	if !report.Equal(Resolve(g, model.AnchorIndex{"B": model.NewAnchorSet("one"), "C": model.NewAnchorSet("two")})) {
		t.Error("ResolveFound and Resolve disagree")
	}
}
