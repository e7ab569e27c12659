package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/biomind/repurposing/pkg/domain"
)

const reasoningFallbackOverallScore = 0.3

// NewReasoningStage builds the reasoning stage: converts
// accepted simulation paths into mechanism_paths, and produces one
// candidate for the primary (drug, disease) pair with overall_score =
// 0.6*plausibility + min(0.4, |evidence|/20). If the simulator rejected
// every path, a single fallback candidate with overall_score <= 0.3 is
// produced instead.
func NewReasoningStage(deps *Deps) Stage {
	return Stage{
		Name: StageReasoning,
		RequiredInputs: func(s *domain.WorkflowState) bool {
			return s.ExtractedEntities != nil
		},
		ProducedOutputs: func(s *domain.WorkflowState) bool {
			return s.MechanismPaths != nil && s.DrugCandidates != nil
		},
		Run: func(ctx context.Context, s *domain.WorkflowState) (*domain.WorkflowState, error) {
			s.MechanismPaths = append([]domain.PathwayPath{}, s.SimulationResult.AcceptedPaths...)

			drug, disease := primaryPair(s.ExtractedEntities)
			s.DrugCandidates = []domain.Candidate{}
			if drug == nil || disease == nil {
				return s, nil
			}

			plausibility := s.SimulationResult.Plausibility
			evidenceTerm := math.Min(0.4, float64(len(s.LiteratureEvidence))/20.0)
			overallScore := clamp01(0.6*plausibility + evidenceTerm)
			confidence := math.Min(plausibility, overallScore)

			if len(s.MechanismPaths) == 0 {
				overallScore = math.Min(overallScore, reasoningFallbackOverallScore)
				confidence = math.Min(confidence, overallScore)
			}

			hypothesis, mechanismSummary := fallbackNarrative(*drug, *disease, s.MechanismPaths)
			if deps.Synth != nil {
				if h, m, err := deps.Synth.GenerateHypothesis(ctx, *drug, *disease, s.MechanismPaths, s.LiteratureEvidence); err == nil && h != "" {
					hypothesis, mechanismSummary = h, m
				} else if err != nil {
					s.RecordError(StageReasoning, err)
				}
			}

			candidate, err := domain.NewCandidate(
				fmt.Sprintf("candidate:%s:%s", drug.ID, disease.ID),
				*drug, *disease, hypothesis, mechanismSummary,
				overallScore, confidence, defaultNovelty,
				s.MechanismPaths, s.LiteratureEvidence, s.LiteratureCitations,
			)
			if err != nil {
				s.RecordError(StageReasoning, err)
				return s, nil
			}
			s.DrugCandidates = []domain.Candidate{*candidate}
			return s, nil
		},
	}
}

// defaultNovelty is used when no signal distinguishes a hypothesis as more
// or less novel than another; ranking's novelty term carries a 5% weight so
// this only breaks ties.
const defaultNovelty = 0.5

func fallbackNarrative(drug, disease domain.Entity, paths []domain.PathwayPath) (hypothesis, mechanismSummary string) {
	if len(paths) == 0 {
		return fmt.Sprintf("%s may be repurposable for %s, pending stronger mechanistic evidence.", drug.CanonicalName, disease.CanonicalName),
			"No accepted mechanistic path was found within the simulated depth."
	}
	return fmt.Sprintf("%s may treat %s via %d candidate mechanistic path(s).", drug.CanonicalName, disease.CanonicalName, len(paths)),
		paths[0].Rationale
}
