package catalog

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/scout/internal/domain"
)

func sampleItems() []Item {
	return []Item{
		{ID: 1, Title: "Surf camp", Price: 60, Tags: []string{"beach", "surfing"}},
		{ID: 2, Title: "Ridge trek", Price: 120, Tags: []string{"hiking", "cold", "hiking"}},
	}
}

func TestNew_DerivesVocabulary(t *testing.T) {
	idx, err := New(sampleItems())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"beach", "cold", "hiking", "surfing"}
	if diff := cmp.Diff(want, idx.Vocabulary().Tags()); diff != "" {
		t.Errorf("vocabulary mismatch (-want +got):\n%s", diff)
	}
	if !idx.Vocabulary().Has("cold") {
		t.Error("expected cold in vocabulary")
	}
	if idx.Vocabulary().Has("desert") {
		t.Error("desert should not be in vocabulary")
	}
}

func TestNew_DedupesItemTags(t *testing.T) {
	idx, err := New(sampleItems())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := idx.Items()[1].Tags
	if diff := cmp.Diff([]string{"hiking", "cold"}, got); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
	}{
		{"empty", nil},
		{"duplicate id", []Item{{ID: 1}, {ID: 1}}},
		{"negative price", []Item{{ID: 1, Price: -1}}},
		{"nan price", []Item{{ID: 1, Price: math.NaN()}}},
		{"inf price", []Item{{ID: 1, Price: math.Inf(1)}}},
		{"empty tag", []Item{{ID: 1, Tags: []string{""}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.items)
			if !errors.Is(err, domain.ErrInvalidCatalog) {
				t.Fatalf("expected ErrInvalidCatalog, got %v", err)
			}
		})
	}
}

func TestIndex_ContainsAndFirst(t *testing.T) {
	idx, err := New(sampleItems())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !idx.Contains(2) {
		t.Error("expected id 2 to be present")
	}
	if idx.Contains(999) {
		t.Error("id 999 should not be present")
	}
	if idx.First().ID != 1 {
		t.Errorf("First().ID = %d, want 1", idx.First().ID)
	}
	if idx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", idx.Len())
	}
}

func TestIndex_ItemsIsACopy(t *testing.T) {
	idx, err := New(sampleItems())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := idx.Items()
	items[0].Tags[0] = "mutated"
	items[0].ID = 42

	if idx.First().ID != 1 || idx.First().Tags[0] != "beach" {
		t.Error("index was mutated through Items()")
	}
}

func TestNewVocabulary(t *testing.T) {
	v := NewVocabulary("b", "a", "b")
	if v.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", v.Len())
	}
	if diff := cmp.Diff([]string{"a", "b"}, v.Tags()); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"yaml document", "items:\n  - id: 7\n    title: Fort\n    price: 80\n    tags: [history, view]\n"},
		{"yaml list", "- id: 7\n  title: Fort\n  price: 80\n  tags: [history, view]\n"},
		{"json list", `[{"id":7,"title":"Fort","price":80,"tags":["history","view"]}]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			if err := os.WriteFile(path, []byte(tc.content), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			idx, err := Load(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if idx.First().ID != 7 || idx.First().Title != "Fort" {
				t.Errorf("unexpected first item: %+v", idx.First())
			}
			if !idx.Vocabulary().Has("view") {
				t.Error("expected view in vocabulary")
			}
		})
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, domain.ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
