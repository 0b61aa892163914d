package model

import "testing"

func TestReferenceSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		ref          Reference
		wantTarget   string
		wantFragment string
	}{
		{
			name:         "target and fragment",
			ref:          "B#setup",
			wantTarget:   "B",
			wantFragment: "setup",
		},
		{
			name:         "splits at first hash only",
			ref:          "B#a#b",
			wantTarget:   "B",
			wantFragment: "a#b",
		},
		{
			name:         "target with spaces",
			ref:          NewReference("Foo Bar", "intro"),
			wantTarget:   "Foo Bar",
			wantFragment: "intro",
		},
		{
			name:         "no hash",
			ref:          "Plain",
			wantTarget:   "Plain",
			wantFragment: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			target, fragment := tt.ref.Split()
			if target != tt.wantTarget {
				t.Errorf("target: got %q, expected %q", target, tt.wantTarget)
			}
			if fragment != tt.wantFragment {
				t.Errorf("fragment: got %q, expected %q", fragment, tt.wantFragment)
			}
			if tt.ref.Target() != tt.wantTarget || tt.ref.Fragment() != tt.wantFragment {
				t.Error("Target()/Fragment() disagree with Split()")
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		capital bool
		want    string
	}{
		{name: "underscores become spaces", in: "Foo_Bar", want: "Foo Bar"},
		{name: "lower case kept without capital links", in: "foo_bar", want: "foo bar"},
		{name: "capital links upper-cases first letter", in: "foo_bar", capital: true, want: "Foo bar"},
		{name: "capital links handles non-ASCII", in: "ąžuolas", capital: true, want: "Ąžuolas"},
		{name: "empty stays empty", in: "", capital: true, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeTitle(tt.in, tt.capital); got != tt.want {
				t.Errorf("got %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestStorageName(t *testing.T) {
	t.Parallel()

	if got := StorageName("Foo Bar baz"); got != "Foo_Bar_baz" {
		t.Errorf("got %q", got)
	}
	if got := DisplayName(StorageName("Foo Bar")); got != "Foo Bar" {
		t.Errorf("round trip: got %q", got)
	}
}
