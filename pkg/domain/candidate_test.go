package domain

import "testing"

func testDrugDisease(t *testing.T) (Entity, Entity) {
	t.Helper()
	drug, err := NewEntity("", "metformin", KindDrug, MethodNER, 0.9, nil, nil)
	if err != nil {
		t.Fatalf("NewEntity(drug) error = %v", err)
	}
	disease, err := NewEntity("", "breast cancer", KindDisease, MethodNER, 0.9, nil, nil)
	if err != nil {
		t.Fatalf("NewEntity(disease) error = %v", err)
	}
	return *drug, *disease
}

func TestNewCandidate_RejectsEmptyID(t *testing.T) {
	drug, disease := testDrugDisease(t)
	if _, err := NewCandidate("", drug, disease, "h", "m", 0.5, 0.5, 0.5, nil, nil, nil); err == nil {
		t.Error("NewCandidate() with empty id should fail")
	}
}

func TestNewCandidate_RejectsScoresOutOfRange(t *testing.T) {
	drug, disease := testDrugDisease(t)
	cases := []struct{ overall, confidence, novelty float64 }{
		{1.5, 0.5, 0.5},
		{0.5, -0.1, 0.5},
		{0.5, 0.5, 1.1},
	}
	for _, c := range cases {
		if _, err := NewCandidate("c1", drug, disease, "h", "m", c.overall, c.confidence, c.novelty, nil, nil, nil); err == nil {
			t.Errorf("NewCandidate() with scores %+v should fail", c)
		}
	}
}

func TestCandidate_WithRank(t *testing.T) {
	drug, disease := testDrugDisease(t)
	c, err := NewCandidate("c1", drug, disease, "h", "m", 0.5, 0.4, 0.3, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewCandidate() error = %v", err)
	}
	if c.Rank != nil {
		t.Fatal("new candidate should have a nil rank")
	}
	ranked := c.WithRank(1)
	if ranked.Rank == nil || *ranked.Rank != 1 {
		t.Errorf("WithRank(1).Rank = %v, want pointer to 1", ranked.Rank)
	}
	if c.Rank != nil {
		t.Error("WithRank should not mutate the receiver's rank")
	}
}

func TestCandidate_EvidenceCountAndCitationIDs(t *testing.T) {
	drug, disease := testDrugDisease(t)
	cit1, _ := NewCitation("pubmed", "111", "t1", nil, nil, "", "", 0.8)
	cit2, _ := NewCitation("pubmed", "222", "t2", nil, nil, "", "", 0.7)
	ev1, _ := NewEvidence("ev-1", EvidenceLiterature, "d1", 0.5, cit1, nil)
	ev2, _ := NewEvidence("ev-2", EvidenceLiterature, "d2", 0.5, cit2, nil)

	c, err := NewCandidate("c1", drug, disease, "h", "m", 0.5, 0.4, 0.3,
		nil, []Evidence{*ev1, *ev2}, []Citation{*cit1, *cit2})
	if err != nil {
		t.Fatalf("NewCandidate() error = %v", err)
	}
	if c.EvidenceCount() != 2 {
		t.Errorf("EvidenceCount() = %d, want 2", c.EvidenceCount())
	}
	ids := c.CitationIDs()
	if len(ids) != 2 || ids[0] != "111" || ids[1] != "222" {
		t.Errorf("CitationIDs() = %v, want [111 222]", ids)
	}
}
