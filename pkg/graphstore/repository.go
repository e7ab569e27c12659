// Package graphstore implements the knowledge-graph repository on top of
// Postgres, emulating a property graph with an adjacency-list schema. Built
// as a relational repository (jackc/pgx + jmoiron/sqlx), with adjacency
// construction and upsert-merge patterned on a directed-graph builder.
package graphstore

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/jmoiron/sqlx"

	"github.com/biomind/repurposing/pkg/domain"
	"github.com/biomind/repurposing/pkg/resilience"
	coreerrors "github.com/biomind/repurposing/pkg/shared/errors"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Repository is the Postgres-backed ports.GraphRepository implementation.
type Repository struct {
	db      *sqlx.DB
	breaker *resilience.Breaker
}

func New(db *sqlx.DB, breaker *resilience.Breaker) *Repository {
	return &Repository{db: db, breaker: breaker}
}

// EnsureSchema creates kg_nodes/kg_edges if they do not already exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return coreerrors.DatabaseError("ensure graph schema on kg_nodes/kg_edges", err)
	}
	return nil
}

type edgeRow struct {
	SourceID              string  `db:"source_id"`
	TargetID              string  `db:"target_id"`
	Relation              string  `db:"relation"`
	Confidence            float64 `db:"confidence"`
	ExtractionMethod      string  `db:"extraction_method"`
	EvidenceCount         int     `db:"evidence_count"`
	SupportingCitationIDs []byte  `db:"supporting_citation_ids"`
}

func (r edgeRow) toEdge() domain.Edge {
	var citations []string
	_ = jsonAPI.Unmarshal(r.SupportingCitationIDs, &citations)
	return domain.Edge{
		SourceID:              r.SourceID,
		TargetID:              r.TargetID,
		Relation:              domain.NormalizeRelation(r.Relation),
		Confidence:            r.Confidence,
		ExtractionMethod:      domain.ExtractionMethod(r.ExtractionMethod),
		EvidenceCount:         r.EvidenceCount,
		SupportingCitationIDs: citations,
	}
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Edge, error) {
	run := func(ctx context.Context) (interface{}, error) {
		var rows []edgeRow
		if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
			return nil, err
		}
		return rows, nil
	}
	var res interface{}
	var err error
	if r.breaker != nil {
		res, err = r.breaker.Do(ctx, run)
	} else {
		res, err = run(ctx)
	}
	if err != nil {
		return nil, coreerrors.New(coreerrors.KindRepositoryUnavailable, err)
	}
	rows, _ := res.([]edgeRow)
	edges := make([]domain.Edge, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, row.toEdge())
	}
	return edges, nil
}

// DrugTargets returns edges of any relation outgoing from drugID onto
// gene/protein entities.
func (r *Repository) DrugTargets(ctx context.Context, drugID string) ([]domain.Edge, error) {
	return r.query(ctx, `
		SELECT e.source_id, e.target_id, e.relation, e.confidence, e.extraction_method, e.evidence_count, e.supporting_citation_ids
		FROM kg_edges e JOIN kg_nodes t ON t.id = e.target_id
		WHERE e.source_id = $1 AND t.kind IN ('gene', 'protein')`, drugID)
}

// DiseaseGenes returns edges linking gene/protein entities to diseaseID.
func (r *Repository) DiseaseGenes(ctx context.Context, diseaseID string) ([]domain.Edge, error) {
	return r.query(ctx, `
		SELECT e.source_id, e.target_id, e.relation, e.confidence, e.extraction_method, e.evidence_count, e.supporting_citation_ids
		FROM kg_edges e JOIN kg_nodes s ON s.id = e.source_id
		WHERE e.target_id = $1 AND s.kind IN ('gene', 'protein')`, diseaseID)
}

// PathwayEdges performs a bounded breadth-first expansion from seedIDs,
// returning every edge visited within maxHops. Each hop is a single query
// so the breaker/retry wrapper guards one round trip at a time.
func (r *Repository) PathwayEdges(ctx context.Context, seedIDs []string, maxHops int) ([]domain.Edge, error) {
	if maxHops <= 0 {
		maxHops = 1
	}
	visited := map[string]bool{}
	frontier := append([]string{}, seedIDs...)
	var all []domain.Edge
	seenEdge := map[domain.EdgeIdentity]bool{}

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		for _, id := range frontier {
			visited[id] = true
		}

		var next []string
		batch, err := r.neighborsBatch(ctx, frontier)
		if err != nil {
			return all, err
		}
		for _, e := range batch {
			id := e.Identity()
			if !seenEdge[id] {
				seenEdge[id] = true
				all = append(all, e)
			}
			if !visited[e.TargetID] {
				next = append(next, e.TargetID)
			}
			if !visited[e.SourceID] {
				next = append(next, e.SourceID)
			}
		}
		frontier = dedupeSeedIDs(next)
	}
	return all, nil
}

func (r *Repository) neighborsBatch(ctx context.Context, ids []string) ([]domain.Edge, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx, `
		SELECT source_id, target_id, relation, confidence, extraction_method, evidence_count, supporting_citation_ids
		FROM kg_edges WHERE source_id = ANY($1) OR target_id = ANY($1)`, ids)
}

func errInvalidKind(kind domain.EntityKind) error {
	return fmt.Errorf("unknown entity kind %q", kind)
}

// errKindConflict reports an UpsertEntity write whose kind disagrees with
// the kind already stored for the same id.
func errKindConflict(id string, existing, incoming domain.EntityKind) error {
	return fmt.Errorf("entity %q has kind %q, write requested kind %q: conflict", id, existing, incoming)
}

func dedupeSeedIDs(ids []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Neighbors returns all edges with entityID as source or target.
func (r *Repository) Neighbors(ctx context.Context, entityID string) ([]domain.Edge, error) {
	return r.query(ctx, `
		SELECT source_id, target_id, relation, confidence, extraction_method, evidence_count, supporting_citation_ids
		FROM kg_edges WHERE source_id = $1 OR target_id = $1`, entityID)
}

// Search resolves free text to known entities of the given kind. kind is
// checked against the closed enum before it reaches the query string.
func (r *Repository) Search(ctx context.Context, kind domain.EntityKind, text string) ([]domain.Entity, error) {
	if !domain.IsValidEntityKind(kind) {
		return nil, coreerrors.New(coreerrors.KindInputInvalid, fmt.Errorf("unknown entity kind %q", kind))
	}
	run := func(ctx context.Context) (interface{}, error) {
		var rows []nodeRow
		err := r.db.SelectContext(ctx, &rows, `
			SELECT id, kind, canonical_name, aliases, extraction_method, extraction_confidence, metadata
			FROM kg_nodes
			WHERE kind = $1 AND (canonical_name ILIKE '%' || $2 || '%' OR aliases::text ILIKE '%' || $2 || '%')
			LIMIT 25`, string(kind), text)
		return rows, err
	}
	var res interface{}
	var err error
	if r.breaker != nil {
		res, err = r.breaker.Do(ctx, run)
	} else {
		res, err = run(ctx)
	}
	if err != nil {
		return nil, coreerrors.New(coreerrors.KindRepositoryUnavailable, err)
	}
	rows, _ := res.([]nodeRow)
	entities := make([]domain.Entity, 0, len(rows))
	for _, row := range rows {
		entities = append(entities, row.toEntity())
	}
	return entities, nil
}

type nodeRow struct {
	ID                   string  `db:"id"`
	Kind                 string  `db:"kind"`
	CanonicalName        string  `db:"canonical_name"`
	Aliases              []byte  `db:"aliases"`
	ExtractionMethod     string  `db:"extraction_method"`
	ExtractionConfidence float64 `db:"extraction_confidence"`
	Metadata             []byte  `db:"metadata"`
}

func (n nodeRow) toEntity() domain.Entity {
	var aliases []string
	_ = jsonAPI.Unmarshal(n.Aliases, &aliases)
	var metadata map[string]string
	_ = jsonAPI.Unmarshal(n.Metadata, &metadata)
	return domain.Entity{
		ID:                   n.ID,
		CanonicalName:        n.CanonicalName,
		Kind:                 domain.EntityKind(n.Kind),
		Aliases:              aliases,
		ExtractionMethod:     domain.ExtractionMethod(n.ExtractionMethod),
		ExtractionConfidence: n.ExtractionConfidence,
		Metadata:             metadata,
	}
}
