package model

import (
	"slices"
	"testing"
)

func TestOriginIndex(t *testing.T) {
	t.Parallel()

	t.Run("collapses duplicate origins", func(t *testing.T) {
		t.Parallel()

		idx := NewOriginIndex()
		idx.Add("B#setup", "A")
		idx.Add("B#setup", "A")
		idx.Add("B#setup", "C")

		if idx.Len() != 1 {
			t.Fatalf("expected 1 reference, got %d", idx.Len())
		}
		if got := idx.Origins("B#setup"); !slices.Equal(got, []string{"A", "C"}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("keeps first insertion order", func(t *testing.T) {
		t.Parallel()

		idx := NewOriginIndex()
		idx.Add("Z#z", "A")
		idx.Add("B#b", "A")
		idx.Add("Z#z", "B")

		want := []Reference{"Z#z", "B#b"}
		if got := idx.References(); !slices.Equal(got, want) {
			t.Errorf("got %v, expected %v", got, want)
		}
	})

	t.Run("unknown reference has no origins", func(t *testing.T) {
		t.Parallel()

		if got := NewOriginIndex().Origins("X#y"); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("returned slices are copies", func(t *testing.T) {
		t.Parallel()

		idx := NewOriginIndex()
		idx.Add("B#b", "A")
		idx.Origins("B#b")[0] = "mutated"
		if idx.Origins("B#b")[0] != "A" {
			t.Error("index was mutated through returned slice")
		}
	})
}

func TestTargetGroup(t *testing.T) {
	t.Parallel()

	g := NewTargetGroup()
	g.Add("B", "B#setup", []string{"A"})
	g.Add("A", "A#local", []string{"A"})
	g.Add("B", "B#usage", []string{"C", "A"})

	if got := g.Targets(); !slices.Equal(got, []string{"B", "A"}) {
		t.Errorf("targets: got %v", got)
	}
	if got := g.References("B"); !slices.Equal(got, []Reference{"B#setup", "B#usage"}) {
		t.Errorf("references: got %v", got)
	}
	if got := g.Origins("B#usage"); !slices.Equal(got, []string{"C", "A"}) {
		t.Errorf("origins: got %v", got)
	}
	if g.Len() != 2 || g.ReferenceCount() != 3 {
		t.Errorf("counts: got %d targets, %d references", g.Len(), g.ReferenceCount())
	}
}

func TestAnchorIndex(t *testing.T) {
	t.Parallel()

	idx := AnchorIndex{"B": NewAnchorSet("setup", "usage")}

	if !idx.Anchors("B").Contains("setup") {
		t.Error("expected B to contain setup")
	}
	if idx.Anchors("Missing").Contains("setup") {
		t.Error("unknown target must have no anchors")
	}
	if len(idx.Anchors("Missing")) != 0 {
		t.Error("unknown target must return an empty set")
	}
}
