package domain

import (
	"reflect"
	"testing"
)

func TestNewEdge_RejectsEmptyIDs(t *testing.T) {
	if _, err := NewEdge("", "disease:breast_cancer", RelTreats, 0.5, MethodPattern, nil); err == nil {
		t.Error("NewEdge() with empty source id should fail")
	}
	if _, err := NewEdge("drug:metformin", "", RelTreats, 0.5, MethodPattern, nil); err == nil {
		t.Error("NewEdge() with empty target id should fail")
	}
}

func TestNewEdge_RejectsUnknownRelation(t *testing.T) {
	if _, err := NewEdge("drug:metformin", "disease:breast_cancer", Relation("bogus"), 0.5, MethodPattern, nil); err == nil {
		t.Error("NewEdge() with an unknown relation should fail")
	}
}

func TestNewEdge_RejectsConfidenceOutOfRange(t *testing.T) {
	for _, c := range []float64{-0.01, 1.01} {
		if _, err := NewEdge("drug:metformin", "disease:breast_cancer", RelTreats, c, MethodPattern, nil); err == nil {
			t.Errorf("NewEdge() with confidence %v should fail", c)
		}
	}
}

func TestNewEdge_DedupesCitations(t *testing.T) {
	e, err := NewEdge("drug:metformin", "disease:breast_cancer", RelTreats, 0.5, MethodPattern, []string{"123", "123", "", "456"})
	if err != nil {
		t.Fatalf("NewEdge() error = %v", err)
	}
	want := []string{"123", "456"}
	if !reflect.DeepEqual(e.SupportingCitationIDs, want) {
		t.Errorf("SupportingCitationIDs = %v, want %v", e.SupportingCitationIDs, want)
	}
	if e.EvidenceCount != 2 {
		t.Errorf("EvidenceCount = %d, want 2", e.EvidenceCount)
	}
}

func TestNormalizeRelation(t *testing.T) {
	if got := NormalizeRelation("treats"); got != RelTreats {
		t.Errorf("NormalizeRelation(treats) = %q, want %q", got, RelTreats)
	}
	if got := NormalizeRelation("made_up_relation"); got != RelUnknown {
		t.Errorf("NormalizeRelation(made_up_relation) = %q, want %q", got, RelUnknown)
	}
}

func TestMergeEdges_TakesMaxConfidenceAndUnionsCitations(t *testing.T) {
	existing, _ := NewEdge("drug:metformin", "disease:breast_cancer", RelTreats, 0.4, MethodPattern, []string{"111"})
	incoming, _ := NewEdge("drug:metformin", "disease:breast_cancer", RelTreats, 0.7, MethodPattern, []string{"111", "222"})

	merged := MergeEdges(existing, incoming)
	if merged.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7", merged.Confidence)
	}
	want := []string{"111", "222"}
	if !reflect.DeepEqual(merged.SupportingCitationIDs, want) {
		t.Errorf("SupportingCitationIDs = %v, want %v", merged.SupportingCitationIDs, want)
	}
	if merged.EvidenceCount != 2 {
		t.Errorf("EvidenceCount = %d, want 2", merged.EvidenceCount)
	}
}

func TestMergeEdges_HigherAuthorityExtractionMethodWins(t *testing.T) {
	existing, _ := NewEdge("drug:metformin", "disease:breast_cancer", RelTreats, 0.7, MethodPattern, []string{"111"})
	incoming, _ := NewEdge("drug:metformin", "disease:breast_cancer", RelTreats, 0.4, MethodCurated, []string{"222"})

	merged := MergeEdges(existing, incoming)
	if merged.ExtractionMethod != MethodCurated {
		t.Errorf("ExtractionMethod = %v, want %v", merged.ExtractionMethod, MethodCurated)
	}
	// Lower-confidence incoming write still loses the confidence field to the max.
	if merged.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7", merged.Confidence)
	}
}

func TestEdge_Identity(t *testing.T) {
	e, _ := NewEdge("drug:metformin", "disease:breast_cancer", RelTreats, 0.4, MethodPattern, nil)
	want := EdgeIdentity{SourceID: "drug:metformin", TargetID: "disease:breast_cancer", Relation: RelTreats}
	if got := e.Identity(); got != want {
		t.Errorf("Identity() = %+v, want %+v", got, want)
	}
}
