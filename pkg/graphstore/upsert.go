package graphstore

import (
	"context"

	"github.com/cenkalti/backoff/v5"

	"github.com/biomind/repurposing/pkg/domain"
	coreerrors "github.com/biomind/repurposing/pkg/shared/errors"
)

// UpsertEntity writes e idempotently. If a node with e.ID already exists,
// the canonical name/kind/aliases are kept from whichever write carries the
// higher-authority extraction method; the loser's aliases are
// still folded in so no alias is ever lost.
func (r *Repository) UpsertEntity(ctx context.Context, e domain.Entity) (domain.Entity, error) {
	if !domain.IsValidEntityKind(e.Kind) {
		return domain.Entity{}, coreerrors.New(coreerrors.KindInputInvalid, errInvalidKind(e.Kind))
	}

	run := func(ctx context.Context) (interface{}, error) {
		existing, found, err := r.getEntity(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		merged := e
		if found {
			if existing.Kind != e.Kind {
				return nil, backoff.Permanent(coreerrors.New(coreerrors.KindInputInvalid,
					errKindConflict(e.ID, existing.Kind, e.Kind)))
			}
			merged = mergeEntity(existing, e)
		}
		aliases, err := jsonAPI.Marshal(merged.Aliases)
		if err != nil {
			return nil, err
		}
		metadata, err := jsonAPI.Marshal(merged.Metadata)
		if err != nil {
			return nil, err
		}
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO kg_nodes (id, kind, canonical_name, aliases, extraction_method, extraction_confidence, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				canonical_name = EXCLUDED.canonical_name,
				aliases = EXCLUDED.aliases,
				extraction_method = EXCLUDED.extraction_method,
				extraction_confidence = EXCLUDED.extraction_confidence,
				metadata = EXCLUDED.metadata`,
			merged.ID, string(merged.Kind), merged.CanonicalName, aliases,
			string(merged.ExtractionMethod), merged.ExtractionConfidence, metadata)
		return merged, err
	}

	var res interface{}
	var err error
	if r.breaker != nil {
		res, err = r.breaker.Do(ctx, run)
	} else {
		res, err = run(ctx)
	}
	if err != nil {
		if coreerrors.Is(err, coreerrors.KindInputInvalid) {
			return domain.Entity{}, err
		}
		return domain.Entity{}, coreerrors.New(coreerrors.KindRepositoryUnavailable, err)
	}
	return res.(domain.Entity), nil
}

func (r *Repository) getEntity(ctx context.Context, id string) (domain.Entity, bool, error) {
	var rows []nodeRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, kind, canonical_name, aliases, extraction_method, extraction_confidence, metadata
		FROM kg_nodes WHERE id = $1`, id); err != nil {
		return domain.Entity{}, false, err
	}
	if len(rows) == 0 {
		return domain.Entity{}, false, nil
	}
	return rows[0].toEntity(), true, nil
}

// mergeEntity keeps the name/kind from whichever write has the higher
// authority extraction method, equal authority preferring the incoming
// write (last-writer-wins within a tier), and unions aliases regardless.
func mergeEntity(existing, incoming domain.Entity) domain.Entity {
	winner := existing
	if !domain.HigherAuthority(existing.ExtractionMethod, incoming.ExtractionMethod) {
		winner = incoming
	}
	aliasSet := map[string]bool{}
	var aliases []string
	for _, list := range [][]string{existing.Aliases, incoming.Aliases} {
		for _, a := range list {
			if a != "" && !aliasSet[a] {
				aliasSet[a] = true
				aliases = append(aliases, a)
			}
		}
	}
	winner.Aliases = aliases
	if winner.Metadata == nil {
		winner.Metadata = map[string]string{}
	}
	for k, v := range existing.Metadata {
		if _, ok := winner.Metadata[k]; !ok {
			winner.Metadata[k] = v
		}
	}
	return winner
}

// UpsertRelation writes e idempotently, merging confidence (max),
// extraction method (higher authority wins, same monotonic order as
// mergeEntity) and citations (union) with any existing edge of the same
// identity. Because confidence merges by max, a weaker write never lowers
// the confidence already stored for that identity.
func (r *Repository) UpsertRelation(ctx context.Context, e domain.Edge) (domain.Edge, error) {
	run := func(ctx context.Context) (interface{}, error) {
		existing, found, err := r.getEdge(ctx, e.Identity())
		if err != nil {
			return nil, err
		}
		merged := e
		if found {
			merged = *domain.MergeEdges(&existing, &e)
		}
		citations, err := jsonAPI.Marshal(merged.SupportingCitationIDs)
		if err != nil {
			return nil, err
		}
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO kg_edges (source_id, target_id, relation, confidence, extraction_method, evidence_count, supporting_citation_ids)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (source_id, target_id, relation) DO UPDATE SET
				confidence = EXCLUDED.confidence,
				extraction_method = EXCLUDED.extraction_method,
				evidence_count = EXCLUDED.evidence_count,
				supporting_citation_ids = EXCLUDED.supporting_citation_ids`,
			merged.SourceID, merged.TargetID, string(merged.Relation),
			merged.Confidence, string(merged.ExtractionMethod), merged.EvidenceCount, citations)
		return merged, err
	}

	var res interface{}
	var err error
	if r.breaker != nil {
		res, err = r.breaker.Do(ctx, run)
	} else {
		res, err = run(ctx)
	}
	if err != nil {
		return domain.Edge{}, coreerrors.New(coreerrors.KindRepositoryUnavailable, err)
	}
	return res.(domain.Edge), nil
}

func (r *Repository) getEdge(ctx context.Context, id domain.EdgeIdentity) (domain.Edge, bool, error) {
	var rows []edgeRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT source_id, target_id, relation, confidence, extraction_method, evidence_count, supporting_citation_ids
		FROM kg_edges WHERE source_id = $1 AND target_id = $2 AND relation = $3`,
		id.SourceID, id.TargetID, string(id.Relation)); err != nil {
		return domain.Edge{}, false, err
	}
	if len(rows) == 0 {
		return domain.Edge{}, false, nil
	}
	return rows[0].toEdge(), true, nil
}
