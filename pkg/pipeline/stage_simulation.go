package pipeline

import (
	"context"

	"github.com/biomind/repurposing/pkg/domain"
	"github.com/biomind/repurposing/pkg/simulator"
)

// NewPathwaySimulationStage builds the pathway_simulation stage. It is
// mandatory and CPU-only: it runs even on empty evidence, and
// if no drug or no disease was extracted it returns a result with one
// rejected path and plausibility 0.
func NewPathwaySimulationStage() Stage {
	return Stage{
		Name: StagePathwaySimulation,
		RequiredInputs: func(s *domain.WorkflowState) bool {
			return s.ExtractedEntities != nil
		},
		ProducedOutputs: func(s *domain.WorkflowState) bool {
			return s.SimulationResult != nil
		},
		Run: func(ctx context.Context, s *domain.WorkflowState) (*domain.WorkflowState, error) {
			drug, disease := primaryPair(s.ExtractedEntities)
			drugName, diseaseName := "", ""
			if drug != nil {
				drugName = drug.CanonicalName
			}
			if disease != nil {
				diseaseName = disease.CanonicalName
			}
			s.SimulationResult = simulator.Simulate(s.ExtractedEntities, s.LiteratureEvidence, drugName, diseaseName)
			return s, nil
		},
	}
}

// primaryPair returns the first drug and disease entity extracted, in
// extraction order, or nil if absent.
func primaryPair(entities []domain.Entity) (drug, disease *domain.Entity) {
	for i, e := range entities {
		if e.Kind == domain.KindDrug && drug == nil {
			drug = &entities[i]
		}
		if e.Kind == domain.KindDisease && disease == nil {
			disease = &entities[i]
		}
	}
	return drug, disease
}
