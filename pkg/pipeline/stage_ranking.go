package pipeline

import (
	"context"
	"math"
	"sort"

	"github.com/biomind/repurposing/pkg/domain"
)

// NewRankingStage builds the ranking stage: a pure, total
// function of its inputs. Composite score weighs overall_score, confidence,
// evidence volume, mechanism path count, and novelty; query.min_confidence
// filters, query.max_candidates caps, and surviving candidates are
// assigned rank starting at 1.
func NewRankingStage() Stage {
	return Stage{
		Name: StageRanking,
		RequiredInputs: func(s *domain.WorkflowState) bool {
			return s.DrugCandidates != nil
		},
		ProducedOutputs: func(s *domain.WorkflowState) bool {
			return s.RankedCandidates != nil
		},
		Run: func(ctx context.Context, s *domain.WorkflowState) (*domain.WorkflowState, error) {
			type scored struct {
				candidate domain.Candidate
				composite float64
			}
			scoredCandidates := make([]scored, 0, len(s.DrugCandidates))
			for _, c := range s.DrugCandidates {
				if c.Confidence < s.Query.MinConfidence {
					continue
				}
				composite := 0.35*c.OverallScore + 0.25*c.Confidence +
					0.20*math.Min(float64(c.EvidenceCount())/20.0, 1) +
					0.15*math.Min(float64(len(c.MechanismPaths))/5.0, 1) +
					0.05*c.Novelty
				scoredCandidates = append(scoredCandidates, scored{c, composite})
			}

			sort.SliceStable(scoredCandidates, func(i, j int) bool {
				a, b := scoredCandidates[i], scoredCandidates[j]
				if a.composite != b.composite {
					return a.composite > b.composite
				}
				if a.candidate.Confidence != b.candidate.Confidence {
					return a.candidate.Confidence > b.candidate.Confidence
				}
				return a.candidate.EvidenceCount() > b.candidate.EvidenceCount()
			})

			max := s.Query.MaxCandidates
			if max <= 0 || max > len(scoredCandidates) {
				max = len(scoredCandidates)
			}

			ranked := make([]domain.Candidate, 0, max)
			for i := 0; i < max; i++ {
				ranked = append(ranked, scoredCandidates[i].candidate.WithRank(i+1))
			}
			s.RankedCandidates = ranked
			return s, nil
		},
	}
}
