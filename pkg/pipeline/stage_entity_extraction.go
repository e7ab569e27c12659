package pipeline

import (
	"context"
	"sort"

	"github.com/biomind/repurposing/pkg/domain"
)

// NewEntityExtractionStage builds the entity_extraction stage:
// NER extractor first, synthesizer fallback for kinds the NER missed,
// deduped by normalized name with the higher-authority source winning ties.
func NewEntityExtractionStage(deps *Deps) Stage {
	return Stage{
		Name: StageEntityExtraction,
		RequiredInputs: func(s *domain.WorkflowState) bool {
			return s.Query.Text != ""
		},
		ProducedOutputs: func(s *domain.WorkflowState) bool {
			return s.ExtractedEntities != nil
		},
		Run: func(ctx context.Context, s *domain.WorkflowState) (*domain.WorkflowState, error) {
			byName := map[string]domain.Entity{}
			seenKinds := map[domain.EntityKind]bool{}

			if deps.NER != nil {
				found, err := deps.NER.Extract(ctx, s.Query.Text)
				if err != nil {
					s.RecordError(StageEntityExtraction, err)
				}
				for _, e := range found {
					mergeEntityInto(byName, e)
					seenKinds[e.Kind] = true
				}
			}

			if deps.Synth != nil {
				found, err := deps.Synth.ExtractEntities(ctx, s.Query.Text)
				if err != nil {
					s.RecordError(StageEntityExtraction, err)
				}
				for _, e := range found {
					if seenKinds[e.Kind] {
						// NER already covers this kind; only fill gaps.
						if _, exists := byName[e.CanonicalName]; !exists {
							continue
						}
					}
					mergeEntityInto(byName, e)
				}
			}

			entities := make([]domain.Entity, 0, len(byName))
			for _, e := range byName {
				entities = append(entities, e)
			}
			sort.Slice(entities, func(i, j int) bool {
				return entities[i].CanonicalName < entities[j].CanonicalName
			})
			s.ExtractedEntities = entities
			if s.ExtractedEntities == nil {
				s.ExtractedEntities = []domain.Entity{}
			}
			return s, nil
		},
	}
}

func mergeEntityInto(byName map[string]domain.Entity, e domain.Entity) {
	existing, ok := byName[e.CanonicalName]
	if !ok || domain.HigherAuthority(e.ExtractionMethod, existing.ExtractionMethod) {
		byName[e.CanonicalName] = e
	}
}
