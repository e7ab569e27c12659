// Package ingestion implements the on-demand subgraph materialization
// pipeline: when the orchestrator's preloaded graph context has
// no pathway edge between a (drug, disease) pair, this searches and fetches
// a bounded set of articles, extracts entities and relations, and writes
// them into the knowledge graph before the stage pipeline runs. It is never
// invoked from inside a stage handler.
//
// Grounded on test/integration/gateway/redis_deduplication_test.go's
// SETNX/TTL dedup idiom (reused here for the process-wide "already-ingested
// article ids" set) and
// other_examples/a006495f_AntTheLimey-imagineer__internal-enrichment-pipeline.go.go's
// bounded, staged enrichment shape.
package ingestion

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/biomind/repurposing/pkg/domain"
	"github.com/biomind/repurposing/pkg/ports"
	"github.com/biomind/repurposing/pkg/simulator"
)

const (
	maxPMIDs           = 10
	minConfidence      = 0.5
	confidenceDiscount = 0.8
	seenTTL            = 24 * time.Hour
)

// Pipeline materializes graph edges from literature for a (drug, disease)
// pair that the preloaded context has no pathway edge for.
type Pipeline struct {
	graph      ports.GraphRepository
	literature ports.LiteratureClient
	ner        ports.NERExtractor
	redis      *redis.Client
	group      singleflight.Group
}

func New(graph ports.GraphRepository, literature ports.LiteratureClient, ner ports.NERExtractor, redisClient *redis.Client) *Pipeline {
	return &Pipeline{graph: graph, literature: literature, ner: ner, redis: redisClient}
}

// MaterializeIfNeeded runs ingestion for (drug, disease) if pathwayEdgeCount
// is zero, coalescing concurrent calls for the same pair via singleflight so
// two simultaneous requests for the same drug/disease don't double-fetch
// the same articles.
func (p *Pipeline) MaterializeIfNeeded(ctx context.Context, drug, disease domain.Entity, pathwayEdgeCount int) error {
	if pathwayEdgeCount >= 1 {
		return nil
	}
	key := drug.ID + "|" + disease.ID
	_, err, _ := p.group.Do(key, func() (interface{}, error) {
		return nil, p.materialize(ctx, drug, disease)
	})
	return err
}

func (p *Pipeline) materialize(ctx context.Context, drug, disease domain.Entity) error {
	query := drug.CanonicalName + " " + disease.CanonicalName
	pmids, err := p.literature.Search(ctx, query, maxPMIDs)
	if err != nil || len(pmids) == 0 {
		return err
	}

	fresh := make([]string, 0, len(pmids))
	for _, id := range pmids {
		if p.markSeen(ctx, id) {
			fresh = append(fresh, id)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	citations, err := p.literature.Fetch(ctx, fresh)
	if err != nil {
		return err
	}

	for _, c := range citations {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.processArticle(ctx, c)
	}
	return nil
}

// markSeen reports whether id had not already been ingested, atomically
// claiming it via Redis SETNX so concurrent ingestion runs across process
// instances never double-process the same article. With no Redis configured, every id is
// treated as fresh — acceptable for a single-instance deployment.
func (p *Pipeline) markSeen(ctx context.Context, id string) bool {
	if p.redis == nil {
		return true
	}
	ok, err := p.redis.SetNX(ctx, "ingestion:seen:"+id, "1", seenTTL).Result()
	if err != nil {
		return true
	}
	return ok
}

func (p *Pipeline) processArticle(ctx context.Context, c domain.Citation) {
	text := c.Title + ". " + c.Excerpt
	entities, err := p.ner.Extract(ctx, text)
	if err != nil || len(entities) == 0 {
		return
	}

	written := map[string]domain.Entity{}
	for _, e := range entities {
		stored, err := p.graph.UpsertEntity(ctx, e)
		if err != nil {
			continue
		}
		written[stored.CanonicalName] = stored
	}
	if len(written) < 2 {
		return
	}

	entityList := make([]domain.Entity, 0, len(written))
	for _, e := range written {
		entityList = append(entityList, e)
	}

	for _, sentence := range simulator.Sentences(text) {
		relation, _, ok := simulator.DetectRelation(sentence)
		if !ok {
			continue
		}
		mentioned := mentionedIn(sentence, entityList)
		for i := 0; i < len(mentioned); i++ {
			for j := 0; j < len(mentioned); j++ {
				if i == j {
					continue
				}
				p.writeEdgeIfConfident(ctx, mentioned[i], mentioned[j], relation, c)
			}
		}
	}
}

// writeEdgeIfConfident applies the ingestion-derived edge confidence
// formula, min(entity confidences) x confidenceDiscount; the simulator's
// per-relation modifier, which scales the simulator's own evidence-derived
// edges, is not applied here.
func (p *Pipeline) writeEdgeIfConfident(ctx context.Context, from, to domain.Entity, relation domain.Relation, c domain.Citation) {
	confidence := minConfidence2(from.ExtractionConfidence, to.ExtractionConfidence) * confidenceDiscount
	if confidence < minConfidence {
		return
	}
	edge, err := domain.NewEdge(from.ID, to.ID, relation, clamp01(confidence), domain.MethodNERRegex, []string{c.SourceID})
	if err != nil {
		return
	}
	_, _ = p.graph.UpsertRelation(ctx, *edge)
}

func mentionedIn(sentence string, entities []domain.Entity) []domain.Entity {
	lower := strings.ToLower(sentence)
	var out []domain.Entity
	for _, e := range entities {
		if strings.Contains(lower, strings.ToLower(e.CanonicalName)) {
			out = append(out, e)
		}
	}
	return out
}

func minConfidence2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
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
