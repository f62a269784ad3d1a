package gazetteer

import (
	"errors"
	"testing"
)

func TestResolveExactKey(t *testing.T) {
	r := NewResolver()

	ward, err := r.Resolve("anna-nagar")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ward.Key != "anna-nagar" {
		t.Fatalf("expected anna-nagar, got %s", ward.Key)
	}
}

func TestResolveDisplayNameAndCase(t *testing.T) {
	r := NewResolver()

	ward, err := r.Resolve("Anna Nagar")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ward.Key != "anna-nagar" {
		t.Fatalf("expected anna-nagar, got %s", ward.Key)
	}
}

func TestResolveFuzzyTypo(t *testing.T) {
	r := NewResolver()

	// One substitution away from "anna nagar".
	ward, err := r.Resolve("anna nagat")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ward.Key != "anna-nagar" {
		t.Fatalf("expected anna-nagar, got %s", ward.Key)
	}
}

func TestResolveUnknownArea(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve("atlantis")
	if !errors.Is(err, ErrUnknownArea) {
		t.Fatalf("expected ErrUnknownArea, got %v", err)
	}
}

func TestResolveEmpty(t *testing.T) {
	r := NewResolver()

	if _, err := r.Resolve("  "); !errors.Is(err, ErrUnknownArea) {
		t.Fatalf("expected ErrUnknownArea, got %v", err)
	}
}

func TestResolveDeterministicAcrossCalls(t *testing.T) {
	r := NewResolver()

	first, err := r.Resolve("sellur")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.Resolve("sellur")
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if again.Key != first.Key {
			t.Fatalf("resolution changed between calls: %s vs %s", first.Key, again.Key)
		}
	}
}

func TestNormalizeStripsPunctuation(t *testing.T) {
	if got := Normalize("  K.K. Nagar  "); got != "k k nagar" {
		t.Fatalf("normalize: got %q", got)
	}
}

func TestEditDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"abc", "ab", 1},
		{"kitten", "sitting", 3},
	}
	for _, tc := range cases {
		if got := editDistance(tc.a, tc.b); got != tc.want {
			t.Fatalf("editDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCapacityForUnknownFallsBack(t *testing.T) {
	r := NewResolver()

	if got := r.CapacityFor("no-such-ward"); got != DefaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", DefaultCapacity, got)
	}
}

func TestAllSortedByKey(t *testing.T) {
	r := NewResolver()

	wards := r.All()
	if len(wards) == 0 {
		t.Fatal("expected at least one ward")
	}
	for i := 1; i < len(wards); i++ {
		if wards[i-1].Key >= wards[i].Key {
			t.Fatalf("wards not sorted at %d: %s >= %s", i, wards[i-1].Key, wards[i].Key)
		}
	}
}
