// Package orchestrator is the public entry point:
// Run(ctx, query, userID, requestID) parses drug/disease hints, preloads a
// knowledge-graph neighborhood, conditionally triggers on-demand ingestion
// (then preloads again), drives the six-stage pipeline, appends a terminal audit event, and caches
// the result for read-back. Generalized from an HTTP-service-with-
// injected-client construction shape (workflow.NewWorkflowService(cfg,
// logger)) to this repo's direct Run(ctx, query, userID, requestID) call.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/biomind/repurposing/pkg/domain"
	"github.com/biomind/repurposing/pkg/ingestion"
	"github.com/biomind/repurposing/pkg/ner"
	"github.com/biomind/repurposing/pkg/pipeline"
	"github.com/biomind/repurposing/pkg/ports"
	coreerrors "github.com/biomind/repurposing/pkg/shared/errors"
)

// maxNeighborHops bounds the orchestrator's preload of 1-hop neighbors
// around each hint entity.
const maxNeighborHops = 1

// Orchestrator wires the repository, external-service, and pipeline
// dependencies together behind a single Run call.
type Orchestrator struct {
	graph     ports.GraphRepository
	audit     ports.AuditStore
	notifier  ports.Notifier
	pipeline  *pipeline.Pipeline
	ingestion *ingestion.Pipeline
	logger    *logrus.Logger

	mu    sync.RWMutex
	cache map[string]*domain.WorkflowState
}

func New(graph ports.GraphRepository, audit ports.AuditStore, notifier ports.Notifier, pl *pipeline.Pipeline, ing *ingestion.Pipeline, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		graph:     graph,
		audit:     audit,
		notifier:  notifier,
		pipeline:  pl,
		ingestion: ing,
		logger:    logger,
		cache:     make(map[string]*domain.WorkflowState),
	}
}

// Run executes one full request: parse, preload, (maybe) ingest and preload
// again, pipeline, audit, notify, cache.
func (o *Orchestrator) Run(ctx context.Context, query domain.Query, userID, requestID string) (*domain.WorkflowState, error) {
	if requestID == "" {
		requestID = uuid.NewString()
	}

	drugHint, diseaseHint := parseHints(query)
	query.DrugHint = drugHint
	query.DiseaseHint = diseaseHint

	preloaded, err := o.preload(ctx, drugHint, diseaseHint)
	if err != nil && o.logger != nil {
		o.logger.WithField("request_id", requestID).WithError(err).Warn("graph preload degraded")
	}

	if drugHint != "" && diseaseHint != "" && o.ingestion != nil {
		drugEntity, err1 := domain.NewEntity("", drugHint, domain.KindDrug, domain.MethodCurated, 1.0, nil, nil)
		diseaseEntity, err2 := domain.NewEntity("", diseaseHint, domain.KindDisease, domain.MethodCurated, 1.0, nil, nil)
		if err1 == nil && err2 == nil {
			if err := o.ingestion.MaterializeIfNeeded(ctx, *drugEntity, *diseaseEntity, len(preloaded.PathwayEdges)); err != nil && o.logger != nil {
				o.logger.WithField("request_id", requestID).WithError(err).Warn("ingestion degraded")
			} else if len(preloaded.PathwayEdges) == 0 {
				reloaded, err := o.preload(ctx, drugHint, diseaseHint)
				if err == nil {
					preloaded = reloaded
				}
			}
		}
	}

	state := domain.NewWorkflowState(query, requestID, userID, preloaded)

	state, runErr := o.pipeline.Execute(ctx, state)

	eventType := domain.EventWorkflowComplete
	action := "workflow completed"
	if runErr != nil {
		if coreerrors.Is(runErr, coreerrors.KindCancelled) {
			eventType = domain.EventWorkflowCancelled
			action = "workflow cancelled"
		} else {
			eventType = domain.EventWorkflowFailed
			action = "workflow failed: " + runErr.Error()
		}
	}
	o.appendAudit(ctx, requestID, userID, eventType, action, state)
	runOutcomes.WithLabelValues(eventType).Inc()

	if runErr == nil && state.SafetyResult != nil && state.SafetyResult.RequiresHumanReview && o.notifier != nil {
		_ = o.notifier.NotifyReviewRequired(ctx, requestID, *state.SafetyResult)
	}

	if runErr == nil {
		o.mu.Lock()
		o.cache[requestID] = state
		o.mu.Unlock()
	}

	return state, runErr
}

// Get returns a previously cached result by request id, for the read-back
// endpoints.
func (o *Orchestrator) Get(requestID string) (*domain.WorkflowState, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s, ok := o.cache[requestID]
	return s, ok
}

func (o *Orchestrator) appendAudit(ctx context.Context, requestID, userID, eventType, action string, state *domain.WorkflowState) {
	if o.audit == nil {
		return
	}
	details := map[string]interface{}{
		"stage_history": state.StageHistory,
		"approved":      state.WorkflowApproved,
	}
	if state.SafetyResult != nil {
		details["safety_result"] = state.SafetyResult
		if state.SafetyResult.HasCritical() {
			details["critical_flag_count"] = state.SafetyResult.CriticalCount()
		}
	}
	ev := domain.AuditEvent{
		PartitionDate: time.Now().UTC().Format("2006-01-02"),
		EventType:     eventType,
		UserID:        userID,
		RequestID:     requestID,
		Action:        action,
		Resource:      "workflow",
		Details:       details,
	}
	if _, err := o.audit.Append(ctx, ev); err != nil && o.logger != nil {
		o.logger.WithField("request_id", requestID).WithError(err).Warn("audit append failed")
	}
}

func (o *Orchestrator) preload(ctx context.Context, drugHint, diseaseHint string) (domain.GraphContext, error) {
	var ctxResult domain.GraphContext
	if o.graph == nil {
		return ctxResult, nil
	}

	var firstErr error
	var drugID, diseaseID string

	if drugHint != "" {
		entities, err := o.graph.Search(ctx, domain.KindDrug, drugHint)
		if err != nil {
			firstErr = err
		} else if len(entities) > 0 {
			drugID = entities[0].ID
			targets, err := o.graph.DrugTargets(ctx, drugID)
			if err != nil {
				firstErr = err
			} else {
				ctxResult.DrugTargets = targets
			}
		}
	}
	if diseaseHint != "" {
		entities, err := o.graph.Search(ctx, domain.KindDisease, diseaseHint)
		if err != nil {
			firstErr = err
		} else if len(entities) > 0 {
			diseaseID = entities[0].ID
			genes, err := o.graph.DiseaseGenes(ctx, diseaseID)
			if err != nil {
				firstErr = err
			} else {
				ctxResult.DiseaseGenes = genes
			}
		}
	}
	if drugID != "" && diseaseID != "" {
		edges, err := o.graph.PathwayEdges(ctx, []string{drugID, diseaseID}, maxNeighborHops)
		if err != nil {
			firstErr = err
		} else {
			ctxResult.PathwayEdges = edges
		}
	}

	ctxResult.Neighbors = map[string][]domain.Edge{}
	for _, id := range []string{drugID, diseaseID} {
		if id == "" {
			continue
		}
		neighbors, err := o.graph.Neighbors(ctx, id)
		if err != nil {
			firstErr = err
			continue
		}
		ctxResult.Neighbors[id] = neighbors
	}

	return ctxResult, firstErr
}

// parseHints resolves drug/disease hints from structured query fields first,
// falling back to a gazetteer scan of the raw query text plus a disease-
// suffix heuristic.
func parseHints(query domain.Query) (drug, disease string) {
	drug, disease = query.DrugHint, query.DiseaseHint
	if drug != "" && disease != "" {
		return drug, disease
	}

	if drug == "" {
		drug = ner.GuessDrugHint(query.Text)
	}
	if disease == "" {
		disease = ner.GuessDiseaseHint(query.Text)
	}
	return drug, disease
}
