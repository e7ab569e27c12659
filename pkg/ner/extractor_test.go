package ner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/biomind/repurposing/internal/config"
	"github.com/biomind/repurposing/pkg/domain"
)

func TestExtract_UsesGazetteerFallbackWhenDisabled(t *testing.T) {
	x := New(config.NERConfig{FallbackOnly: true}, nil)

	entities, err := x.Extract(context.Background(), "Does metformin help treat breast cancer?")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	var gotDrug, gotDisease bool
	for _, e := range entities {
		if e.Kind == domain.KindDrug && e.CanonicalName == "Metformin" {
			gotDrug = true
		}
		if e.Kind == domain.KindDisease && e.CanonicalName == "Breast Cancer" {
			gotDisease = true
		}
		if e.ExtractionMethod != domain.MethodPattern {
			t.Errorf("entity %q has method %q, want pattern (fallback path)", e.CanonicalName, e.ExtractionMethod)
		}
	}
	if !gotDrug || !gotDisease {
		t.Errorf("entities = %+v, want metformin (drug) and breast cancer (disease)", entities)
	}
}

func TestExtract_FallsBackWhenRemoteFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	x := New(config.NERConfig{Endpoint: srv.URL}, nil)
	entities, err := x.Extract(context.Background(), "metformin treats breast cancer")
	if err != nil {
		t.Fatalf("Extract() error = %v, want nil (falls back to gazetteer)", err)
	}
	if len(entities) == 0 {
		t.Error("expected the gazetteer fallback to find at least one entity")
	}
}

func TestExtract_PrefersRemoteWhenAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"spans":[{"text":"metformin","kind":"drug","confidence":0.95}]}`))
	}))
	defer srv.Close()

	x := New(config.NERConfig{Endpoint: srv.URL}, nil)
	entities, err := x.Extract(context.Background(), "metformin")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(entities) != 1 || entities[0].ExtractionMethod != domain.MethodNER {
		t.Fatalf("entities = %+v, want one ner_model entity", entities)
	}
}

func TestGuessDiseaseHint_FallsBackToSuffixHeuristic(t *testing.T) {
	if got := GuessDiseaseHint("treating glioblastoma syndrome in patients"); got == "" {
		t.Error("GuessDiseaseHint() = \"\", want a disease-suffix match")
	}
}

func TestGuessDrugHint_FindsGazetteerEntry(t *testing.T) {
	if got := GuessDrugHint("Is metformin safe?"); got != "metformin" {
		t.Errorf("GuessDrugHint() = %q, want metformin", got)
	}
}
