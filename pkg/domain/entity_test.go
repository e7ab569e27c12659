package domain

import "testing"

func TestNewEntity_Normalization(t *testing.T) {
	e, err := NewEntity("", "  Metformin  ", KindDrug, MethodNER, 0.9, nil, nil)
	if err != nil {
		t.Fatalf("NewEntity() error = %v", err)
	}
	if e.CanonicalName != "Metformin" {
		t.Errorf("CanonicalName = %q, want %q", e.CanonicalName, "Metformin")
	}
	if e.ID != "drug:metformin" {
		t.Errorf("ID = %q, want %q", e.ID, "drug:metformin")
	}
}

func TestNewEntity_RejectsInvalidKind(t *testing.T) {
	if _, err := NewEntity("", "metformin", EntityKind("unknown_kind"), MethodNER, 0.9, nil, nil); err == nil {
		t.Error("NewEntity() with an invalid kind should fail")
	}
}

func TestNewEntity_RejectsConfidenceOutOfRange(t *testing.T) {
	for _, c := range []float64{-0.1, 1.1} {
		if _, err := NewEntity("", "metformin", KindDrug, MethodNER, c, nil, nil); err == nil {
			t.Errorf("NewEntity() with confidence %v should fail", c)
		}
	}
}

func TestNewEntity_RejectsStopwordOrRelationName(t *testing.T) {
	for _, name := range []string{"the", "inhibits", "treats"} {
		if _, err := NewEntity("", name, KindDrug, MethodNER, 0.9, nil, nil); err == nil {
			t.Errorf("NewEntity(%q) should fail as a stopword/relation name", name)
		}
	}
}

func TestNewEntity_RejectsAllDigitName(t *testing.T) {
	if _, err := NewEntity("", "12345", KindDrug, MethodNER, 0.9, nil, nil); err == nil {
		t.Error("NewEntity() with an all-digit name should fail")
	}
}

func TestHigherAuthority(t *testing.T) {
	cases := []struct {
		a, b ExtractionMethod
		want bool
	}{
		{MethodCurated, MethodPattern, true},
		{MethodPattern, MethodCurated, false},
		{MethodNER, MethodPattern, true},
		{MethodScorer, MethodNER, true},
		{MethodSynthesizer, MethodScorer, false}, // equal authority
		{MethodNERRegex, MethodPattern, false},   // equal authority
	}
	for _, c := range cases {
		if got := HigherAuthority(c.a, c.b); got != c.want {
			t.Errorf("HigherAuthority(%s, %s) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestIsStopwordOrRelation(t *testing.T) {
	for _, label := range []string{"the", "Inhibits", " treats ", "unknown"} {
		if !IsStopwordOrRelation(label) {
			t.Errorf("IsStopwordOrRelation(%q) = false, want true", label)
		}
	}
	for _, label := range []string{"metformin", "breast cancer", "AMPK"} {
		if IsStopwordOrRelation(label) {
			t.Errorf("IsStopwordOrRelation(%q) = true, want false", label)
		}
	}
}

func TestDeriveEntityID(t *testing.T) {
	if got := DeriveEntityID(KindDisease, "Breast Cancer"); got != "disease:breast_cancer" {
		t.Errorf("DeriveEntityID() = %q, want %q", got, "disease:breast_cancer")
	}
}
