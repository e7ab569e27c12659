package pipeline

import (
	"context"
	"sort"
	"strings"

	"github.com/biomind/repurposing/pkg/domain"
)

const (
	maxPMIDsPerPair   = 5
	maxFallbackEntities = 3
	maxPMIDsPerEntity   = 3
)

// NewLiteratureStage builds the literature stage: search+fetch
// per drug×disease pair capped at 5, falling back to the top-3 individual
// entities capped at 3 when no pair yields evidence; each item is rescored
// 60% scorer / 40% keyword relevance; citations dedupe by source_id.
func NewLiteratureStage(deps *Deps) Stage {
	return Stage{
		Name: StageLiterature,
		RequiredInputs: func(s *domain.WorkflowState) bool {
			return s.Query.Text != "" && s.ExtractedEntities != nil
		},
		ProducedOutputs: func(s *domain.WorkflowState) bool {
			return s.LiteratureEvidence != nil && s.LiteratureCitations != nil
		},
		Run: func(ctx context.Context, s *domain.WorkflowState) (*domain.WorkflowState, error) {
			drugs, diseases := splitByKind(s.ExtractedEntities)

			var citations []domain.Citation
			var evidence []domain.Evidence

			addFromQuery := func(query string) {
				if deps.Literature == nil {
					return
				}
				pmids, err := deps.Literature.Search(ctx, query, maxPMIDsPerPair)
				if err != nil {
					s.RecordError(StageLiterature, err)
					return
				}
				fetched, err := deps.Literature.Fetch(ctx, pmids)
				if err != nil {
					s.RecordError(StageLiterature, err)
					return
				}
				for _, c := range fetched {
					citations = append(citations, c)
					evidence = append(evidence, buildEvidence(ctx, deps, s.Query.Text, c, s.ExtractedEntities))
				}
			}

			for _, d := range drugs {
				for _, dis := range diseases {
					addFromQuery(d.CanonicalName + " " + dis.CanonicalName)
				}
			}

			if len(evidence) == 0 {
				fallback := topEntities(s.ExtractedEntities, maxFallbackEntities)
				for _, e := range fallback {
					if deps.Literature == nil {
						break
					}
					pmids, err := deps.Literature.Search(ctx, e.CanonicalName, maxPMIDsPerEntity)
					if err != nil {
						s.RecordError(StageLiterature, err)
						continue
					}
					fetched, err := deps.Literature.Fetch(ctx, pmids)
					if err != nil {
						s.RecordError(StageLiterature, err)
						continue
					}
					for _, c := range fetched {
						citations = append(citations, c)
						evidence = append(evidence, buildEvidence(ctx, deps, s.Query.Text, c, s.ExtractedEntities))
					}
				}
			}

			s.LiteratureCitations = domain.DedupeCitationsBySourceID(citations)
			s.LiteratureEvidence = evidence
			if s.LiteratureEvidence == nil {
				s.LiteratureEvidence = []domain.Evidence{}
			}
			return s, nil
		},
	}
}

func splitByKind(entities []domain.Entity) (drugs, diseases []domain.Entity) {
	for _, e := range entities {
		switch e.Kind {
		case domain.KindDrug:
			drugs = append(drugs, e)
		case domain.KindDisease:
			diseases = append(diseases, e)
		}
	}
	return drugs, diseases
}

func topEntities(entities []domain.Entity, n int) []domain.Entity {
	sorted := append([]domain.Entity{}, entities...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ExtractionConfidence > sorted[j].ExtractionConfidence
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func buildEvidence(ctx context.Context, deps *Deps, queryText string, c domain.Citation, entities []domain.Entity) domain.Evidence {
	text := c.Title + " " + c.Excerpt
	keywordScore := keywordRelevance(queryText, text)

	scorerScore := keywordScore
	if deps.Scorer != nil {
		candidate := domain.Candidate{Hypothesis: queryText}
		ev := domain.Evidence{Description: text, Confidence: keywordScore}
		if score, err := deps.Scorer.ScoreEvidence(ctx, candidate, ev); err == nil {
			scorerScore = score
		}
	}
	confidence := 0.6*scorerScore + 0.4*keywordScore

	mentioned := scanMentions(text, entities)
	id := "evidence:" + c.SourceKind + ":" + c.SourceID
	ev, err := domain.NewEvidence(id, domain.EvidenceLiterature, text, clamp01(confidence), &c, mentioned)
	if err != nil {
		return domain.Evidence{ID: id, Kind: domain.EvidenceLiterature, Description: text, Confidence: clamp01(confidence), Citation: &c, EntitiesMentioned: mentioned}
	}
	return *ev
}

func scanMentions(text string, entities []domain.Entity) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, e := range entities {
		if strings.Contains(lower, strings.ToLower(e.CanonicalName)) {
			out = append(out, e.CanonicalName)
		}
	}
	return out
}

func keywordRelevance(query, text string) float64 {
	terms := significantTerms(query)
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

func significantTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	var out []string
	for _, f := range fields {
		f = strings.Trim(f, ".,?!;:()\"'")
		if len(f) < 3 || domain.IsStopwordOrRelation(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
