package pipeline

import (
	"context"
	"testing"

	"github.com/biomind/repurposing/pkg/domain"
)

func TestSafetyStage_ApprovesHealthyCandidate(t *testing.T) {
	cit, _ := domain.NewCitation("pubmed", "1", "t", nil, nil, "", "e", 0.8)
	path, _ := domain.NewPathwayPath("p1", []domain.Edge{{SourceID: "drug:metformin", TargetID: "disease:breast_cancer", Relation: domain.RelTreats, Confidence: 0.4}}, 0.4, 0, "")
	c := newCandidate(t, "c1", 0.6, 0.55, 0.5)
	c.Citations = []domain.Citation{*cit}
	c.MechanismPaths = []domain.PathwayPath{*path}

	stage := NewSafetyStage()
	state := domain.NewWorkflowState(domain.Query{}, "req-1", "", domain.GraphContext{})
	state.ExtractedEntities = []domain.Entity{c.Drug, c.Disease}
	state.LiteratureEvidence = []domain.Evidence{{ID: "ev-1", Confidence: 0.5}}
	state.LiteratureCitations = []domain.Citation{*cit}
	state.RankedCandidates = []domain.Candidate{c}

	out, err := stage.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !out.WorkflowApproved {
		t.Errorf("WorkflowApproved = false, want true (flags: %+v)", out.SafetyResult.Flags)
	}
	if len(out.FinalCandidates) != 1 {
		t.Fatalf("FinalCandidates len = %d, want 1", len(out.FinalCandidates))
	}
	if out.SafetyResult.HasCritical() {
		t.Error("expected no critical flags for a healthy candidate")
	}
}

func TestSafetyStage_RejectsUnsafeContent(t *testing.T) {
	c := newCandidate(t, "c1", 0.6, 0.55, 0.5)
	c.Hypothesis = "a lethal dose of metformin may help"

	stage := NewSafetyStage()
	state := domain.NewWorkflowState(domain.Query{}, "req-1", "", domain.GraphContext{})
	state.ExtractedEntities = []domain.Entity{c.Drug, c.Disease}
	state.RankedCandidates = []domain.Candidate{c}

	out, err := stage.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.WorkflowApproved {
		t.Error("WorkflowApproved = true, want false (unsafe content)")
	}
	if len(out.FinalCandidates) != 0 {
		t.Errorf("FinalCandidates len = %d, want 0", len(out.FinalCandidates))
	}
	if !out.SafetyResult.HasCritical() {
		t.Error("expected a critical flag for unsafe content")
	}
}

func TestSafetyStage_FlagsCandidateCitingUnknownSource(t *testing.T) {
	known, _ := domain.NewCitation("pubmed", "1", "t", nil, nil, "", "e", 0.8)
	unknown, _ := domain.NewCitation("pubmed", "2", "t2", nil, nil, "", "e2", 0.8)
	c := newCandidate(t, "c1", 0.6, 0.55, 0.5)
	c.Citations = []domain.Citation{*unknown}

	stage := NewSafetyStage()
	state := domain.NewWorkflowState(domain.Query{}, "req-1", "", domain.GraphContext{})
	state.ExtractedEntities = []domain.Entity{c.Drug, c.Disease}
	state.LiteratureCitations = []domain.Citation{*known}
	state.RankedCandidates = []domain.Candidate{c}

	out, err := stage.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.SafetyResult.CitationsVerified {
		t.Error("CitationsVerified = true, want false when a candidate cites an unknown source")
	}
	found := false
	for _, f := range out.SafetyResult.Flags {
		if f.Kind == "unverified_citation" && f.AffectedField == "c1" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an unverified_citation flag on candidate c1, got %+v", out.SafetyResult.Flags)
	}
}

func TestSafetyStage_NoCandidatesStillApprovesFalse(t *testing.T) {
	stage := NewSafetyStage()
	state := domain.NewWorkflowState(domain.Query{}, "req-1", "", domain.GraphContext{})

	out, err := stage.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.WorkflowApproved {
		t.Error("WorkflowApproved = true, want false when there are no candidates")
	}
	if out.FinalCandidates == nil || len(out.FinalCandidates) != 0 {
		t.Errorf("FinalCandidates = %v, want empty non-nil slice", out.FinalCandidates)
	}
}
