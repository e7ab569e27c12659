package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/biomind/repurposing/pkg/domain"
)

// bannedContentMarkers triggers the content-safety check.
var bannedContentMarkers = []string{"lethal dose", "overdose", "self-harm", "suicide"}

// NewSafetyStage builds the mandatory safety stage: per-
// candidate and global checks, an approval decision, and the final,
// safety-filtered candidate list. It never raises; degraded upstream
// stages surface here as warnings or info flags instead.
func NewSafetyStage() Stage {
	return Stage{
		Name: StageSafety,
		RequiredInputs: func(s *domain.WorkflowState) bool {
			return true
		},
		ProducedOutputs: func(s *domain.WorkflowState) bool {
			return s.SafetyResult != nil && s.FinalCandidates != nil
		},
		Run: func(ctx context.Context, s *domain.WorkflowState) (*domain.WorkflowState, error) {
			candidates := s.RankedCandidates
			if candidates == nil {
				candidates = s.DrugCandidates
			}

			var flags []domain.SafetyFlag
			minConfidence := 1.0
			for _, c := range candidates {
				flags = append(flags, candidateFlags(c)...)
				if c.Confidence < minConfidence {
					minConfidence = c.Confidence
				}
			}
			if len(candidates) == 0 {
				minConfidence = 0
				flags = append(flags, domain.SafetyFlag{
					ID: "no_candidates", Kind: "no_candidates", Severity: domain.SeverityWarning,
					Message: "no drug candidates survived reasoning/ranking", SourceStage: StageSafety,
				})
			}
			if len(s.ExtractedEntities) == 0 {
				flags = append(flags, domain.SafetyFlag{
					ID: "no_entities", Kind: "no_entities", Severity: domain.SeverityInfo,
					Message: "no entities were extracted from the query", SourceStage: StageSafety,
				})
			}
			if len(s.LiteratureEvidence) == 0 {
				flags = append(flags, domain.SafetyFlag{
					ID: "no_literature_evidence", Kind: "no_literature_evidence", Severity: domain.SeverityInfo,
					Message: "no literature evidence was retrieved", SourceStage: StageSafety,
				})
			}

			knownCitations := make(map[string]bool, len(s.LiteratureCitations))
			for _, c := range s.LiteratureCitations {
				if c.SourceID != "" {
					knownCitations[c.SourceID] = true
				}
			}
			citationsVerified := true
			for _, c := range candidates {
				for _, id := range c.CitationIDs() {
					if !knownCitations[id] {
						citationsVerified = false
						flags = append(flags, domain.SafetyFlag{
							ID: "unverified_citation", Kind: "unverified_citation", Severity: domain.SeverityWarning,
							Message:       fmt.Sprintf("candidate cites unknown source %q", id),
							SourceStage:   StageSafety,
							AffectedField: c.ID,
						})
					}
				}
			}

			contentSafe := true
			for _, c := range candidates {
				if containsBannedContent(c.Hypothesis) || containsBannedContent(c.MechanismSummary) {
					contentSafe = false
					flags = append(flags, domain.SafetyFlag{
						ID: "unsafe_content", Kind: "unsafe_content", Severity: domain.SeverityCritical,
						Message: "candidate narrative contains unsafe content", SourceStage: StageSafety,
						AffectedField: c.ID,
					})
				}
			}

			verdict := domain.SafetyVerdict{
				Flags:             flags,
				MinConfidenceSeen: minConfidence,
				TotalCitations:    len(s.LiteratureCitations),
				SchemaValid:       true,
				ContentSafe:       contentSafe,
				CitationsVerified: citationsVerified,
			}
			verdict.Passed = !verdict.HasCritical()
			verdict.RequiresHumanReview = verdict.HasCritical() || len(verdict.WarningMessages()) > 0

			approved := verdict.Passed && len(candidates) > 0
			s.WorkflowApproved = approved
			if approved {
				s.FinalCandidates = append([]domain.Candidate{}, candidates...)
			} else {
				s.FinalCandidates = []domain.Candidate{}
			}
			s.SafetyResult = &verdict
			return s, nil
		},
	}
}

func candidateFlags(c domain.Candidate) []domain.SafetyFlag {
	var flags []domain.SafetyFlag
	switch {
	case c.Confidence < 0.3:
		flags = append(flags, domain.SafetyFlag{
			ID: "confidence_too_low", Kind: "confidence_too_low", Severity: domain.SeverityCritical,
			Message: fmt.Sprintf("candidate confidence %.2f is below the minimum acceptable threshold", c.Confidence),
			SourceStage: StageSafety, AffectedField: c.ID,
		})
	case c.Confidence < 0.5:
		flags = append(flags, domain.SafetyFlag{
			ID: "low_confidence", Kind: "low_confidence", Severity: domain.SeverityWarning,
			Message: fmt.Sprintf("candidate confidence %.2f is low", c.Confidence),
			SourceStage: StageSafety, AffectedField: c.ID,
		})
	}
	if len(c.Citations) == 0 {
		flags = append(flags, domain.SafetyFlag{
			ID: "insufficient_citations", Kind: "insufficient_citations", Severity: domain.SeverityWarning,
			Message: "candidate has no supporting citations", SourceStage: StageSafety, AffectedField: c.ID,
		})
	}
	if len(c.MechanismPaths) == 0 {
		flags = append(flags, domain.SafetyFlag{
			ID: "no_mechanism_path", Kind: "no_mechanism_path", Severity: domain.SeverityWarning,
			Message: "candidate has no mechanism path", SourceStage: StageSafety, AffectedField: c.ID,
		})
	}
	if strings.TrimSpace(c.Hypothesis) == "" {
		flags = append(flags, domain.SafetyFlag{
			ID: "empty_hypothesis", Kind: "empty_hypothesis", Severity: domain.SeverityCritical,
			Message: "candidate has no hypothesis text", SourceStage: StageSafety, AffectedField: c.ID,
		})
	}
	if strings.TrimSpace(c.MechanismSummary) == "" {
		flags = append(flags, domain.SafetyFlag{
			ID: "empty_mechanism_summary", Kind: "empty_mechanism_summary", Severity: domain.SeverityWarning,
			Message: "candidate has no mechanism summary", SourceStage: StageSafety, AffectedField: c.ID,
		})
	}
	return flags
}

func containsBannedContent(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range bannedContentMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
