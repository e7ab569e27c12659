package domain

import "testing"

func TestNewCitation_RejectsEmptyIdentity(t *testing.T) {
	if _, err := NewCitation("", "123", "t", nil, nil, "", "", 0.5); err == nil {
		t.Error("NewCitation() with empty source_kind should fail")
	}
	if _, err := NewCitation("pubmed", "", "t", nil, nil, "", "", 0.5); err == nil {
		t.Error("NewCitation() with empty source_id should fail")
	}
}

func TestNewCitation_RejectsRelevanceOutOfRange(t *testing.T) {
	for _, r := range []float64{-0.1, 1.1} {
		if _, err := NewCitation("pubmed", "123", "t", nil, nil, "", "", r); err == nil {
			t.Errorf("NewCitation() with relevance %v should fail", r)
		}
	}
}

func TestCitation_Identity(t *testing.T) {
	c, err := NewCitation("pubmed", "123", "t", nil, nil, "", "", 0.5)
	if err != nil {
		t.Fatalf("NewCitation() error = %v", err)
	}
	want := CitationIdentity{SourceKind: "pubmed", SourceID: "123"}
	if got := c.Identity(); got != want {
		t.Errorf("Identity() = %+v, want %+v", got, want)
	}
}

func TestDedupeCitationsBySourceID(t *testing.T) {
	a, _ := NewCitation("pubmed", "123", "first", nil, nil, "", "", 0.5)
	b, _ := NewCitation("pubmed", "123", "duplicate", nil, nil, "", "", 0.9)
	c, _ := NewCitation("pubmed", "456", "other", nil, nil, "", "", 0.3)

	out := DedupeCitationsBySourceID([]Citation{*a, *b, *c})
	if len(out) != 2 {
		t.Fatalf("DedupeCitationsBySourceID() returned %d items, want 2", len(out))
	}
	if out[0].Title != "first" {
		t.Errorf("first retained citation = %q, want %q (first occurrence kept)", out[0].Title, "first")
	}
	if out[1].SourceID != "456" {
		t.Errorf("second retained citation source_id = %q, want %q", out[1].SourceID, "456")
	}
}
