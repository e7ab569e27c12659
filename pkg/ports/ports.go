// Package ports declares the repository and external-service interfaces the
// pipeline stages and orchestrator depend on. Concrete adapters live in
// pkg/graphstore, pkg/audit, pkg/literature, pkg/ner, pkg/ai/synth, and
// pkg/ai/scorer; each is constructed by a provider-switch NewXxx function in
// the style of an llm.NewClient (config in, interface out).
package ports

import (
	"context"

	"github.com/biomind/repurposing/pkg/domain"
)

// GraphRepository is the knowledge-graph read/write boundary. All methods take a context so callers can bound query latency and
// propagate cancellation from an HTTP request.
type GraphRepository interface {
	// DrugTargets returns the edges of any relation outgoing from the named
	// drug entity onto gene/protein entities.
	DrugTargets(ctx context.Context, drugID string) ([]domain.Edge, error)
	// DiseaseGenes returns the edges of any relation incoming to the named
	// disease entity from gene/protein entities.
	DiseaseGenes(ctx context.Context, diseaseID string) ([]domain.Edge, error)
	// PathwayEdges returns every edge touching an entity reached from the
	// given seed ids, up to the given hop count.
	PathwayEdges(ctx context.Context, seedIDs []string, maxHops int) ([]domain.Edge, error)
	// Neighbors returns all edges with the given entity as source or target.
	Neighbors(ctx context.Context, entityID string) ([]domain.Edge, error)
	// Search resolves a free-text mention to zero or more known entities.
	Search(ctx context.Context, kind domain.EntityKind, text string) ([]domain.Entity, error)

	// UpsertEntity idempotently writes an entity, merging extraction
	// method/confidence per the monotonic authority order.
	UpsertEntity(ctx context.Context, e domain.Entity) (domain.Entity, error)
	// UpsertRelation idempotently writes an edge, merging confidence,
	// extraction method authority, and citations when an edge with the
	// same identity already exists.
	UpsertRelation(ctx context.Context, e domain.Edge) (domain.Edge, error)
}

// AuditStore appends and reads the hash-chained audit log.
type AuditStore interface {
	// Append writes ev, filling SelfHash/PrevHash/CreatedAt/EventID from
	// the current chain tip for ev.PartitionDate, and returns the
	// populated event.
	Append(ctx context.Context, ev domain.AuditEvent) (domain.AuditEvent, error)
	// ForRequest returns the events recorded for a single request id, in
	// chain order.
	ForRequest(ctx context.Context, requestID string) ([]domain.AuditEvent, error)
	// Verify recomputes the hash chain for a partition date and reports
	// the first event_id at which it diverges, if any.
	Verify(ctx context.Context, partitionDate string) (ok bool, brokenAt int64, err error)
}

// LiteratureClient searches and fetches biomedical literature.
type LiteratureClient interface {
	// Search returns up to maxResults PMIDs matching the query.
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
	// Fetch returns the title/abstract/metadata for the given PMIDs.
	Fetch(ctx context.Context, pmids []string) ([]domain.Citation, error)
}

// NERExtractor extracts candidate entities and relations from free text.
type NERExtractor interface {
	Extract(ctx context.Context, text string) ([]domain.Entity, error)
}

// Scorer assigns a confidence to a proposed relation or evidence item using
// a language model.
type Scorer interface {
	ScoreRelation(ctx context.Context, subject, relation, object string, evidence []domain.Evidence) (float64, error)
	ScoreEvidence(ctx context.Context, candidate domain.Candidate, ev domain.Evidence) (float64, error)
}

// Synthesizer generates natural-language hypothesis text and explanations
// from structured evidence.
type Synthesizer interface {
	ExtractEntities(ctx context.Context, text string) ([]domain.Entity, error)
	GenerateHypothesis(ctx context.Context, drug, disease domain.Entity, paths []domain.PathwayPath, evidence []domain.Evidence) (hypothesis, mechanismSummary string, err error)
	ExplainPathway(ctx context.Context, path domain.PathwayPath) (string, error)
}

// Notifier sends an out-of-band alert when a workflow requires human review.
type Notifier interface {
	NotifyReviewRequired(ctx context.Context, requestID string, verdict domain.SafetyVerdict) error
}
