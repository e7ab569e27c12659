// Package pipeline implements the six-stage deterministic workflow:
// entity_extraction, literature, pathway_simulation, reasoning, ranking,
// safety. Each stage is an impure state -> state function with a declared
// input/output contract, timed and recorded into stage_history. The
// contract/step model generalizes a WorkflowBuilderConfig/WorkflowStep
// template from a dynamic step template down to six fixed named stages.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/biomind/repurposing/pkg/domain"
	coreerrors "github.com/biomind/repurposing/pkg/shared/errors"
	"github.com/biomind/repurposing/pkg/shared/logging"
	"github.com/sirupsen/logrus"
)

// Stage names, in pipeline order.
const (
	StageEntityExtraction  = "entity_extraction"
	StageLiterature        = "literature"
	StagePathwaySimulation = "pathway_simulation"
	StageReasoning         = "reasoning"
	StageRanking           = "ranking"
	StageSafety            = "safety"
)

// Handler runs one stage against state, mutating and returning it.
type Handler func(ctx context.Context, state *domain.WorkflowState) (*domain.WorkflowState, error)

// Stage pairs a name with its handler and the contract the runner checks
// before/after the handler runs.
type Stage struct {
	Name            string
	RequiredInputs  func(*domain.WorkflowState) bool
	ProducedOutputs func(*domain.WorkflowState) bool
	Run             Handler
}

// Pipeline is the ordered, routed sequence of stages.
type Pipeline struct {
	stages []Stage
	logger *logrus.Logger
}

func New(logger *logrus.Logger, stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages, logger: logger}
}

// Execute drives state through every stage in order, applying the
// routing rule (skip ranking when no drug_candidates) and the failure
// semantics (stage_input_missing/stage_output_missing errors abort; any
// other error a stage returns is logged and does not abort).
func (p *Pipeline) Execute(ctx context.Context, state *domain.WorkflowState) (*domain.WorkflowState, error) {
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return state, coreerrors.New(coreerrors.KindCancelled, err)
		}
		if stage.Name == StageRanking && len(state.DrugCandidates) == 0 {
			continue
		}

		if stage.RequiredInputs != nil && !stage.RequiredInputs(state) {
			err := coreerrors.New(coreerrors.KindStageInputMissing,
				fmt.Errorf("stage %s: required input missing", stage.Name))
			abortWithCriticalFlag(state, stage.Name, "stage_input_missing", err)
			return state, err
		}

		start := time.Now()
		state.CurrentStage = stage.Name
		next, err := stage.Run(ctx, state)
		end := time.Now()
		state.StageTimings = append(state.StageTimings, domain.StageTiming{
			Stage: stage.Name, Start: start, End: end, Duration: end.Sub(start),
		})
		stageDuration.WithLabelValues(stage.Name).Observe(end.Sub(start).Seconds())

		if err != nil {
			if coreerrors.Is(err, coreerrors.KindStageInputMissing) || coreerrors.Is(err, coreerrors.KindStageOutputMissing) {
				return state, err
			}
			// Repository/transport errors are contained locally; the
			// stage is expected to have already recorded them in state.Errors
			// and returned a degraded-but-valid state.
			if p.logger != nil {
				p.logger.WithFields(logrusFields(stage.Name, err)).Warn("stage degraded")
			}
		}
		state = next
		state.StageHistory = append(state.StageHistory, stage.Name)

		if stage.ProducedOutputs != nil && !stage.ProducedOutputs(state) {
			err := coreerrors.New(coreerrors.KindStageOutputMissing,
				fmt.Errorf("stage %s: produced output missing", stage.Name))
			abortWithCriticalFlag(state, stage.Name, "stage_output_missing", err)
			return state, err
		}
	}
	return state, nil
}

func logrusFields(stage string, err error) logrus.Fields {
	return logrus.Fields(logging.NewFields().Component("pipeline").Operation(stage).Error(err))
}

// abortWithCriticalFlag records a critical safety flag on state before the
// pipeline aborts on a contract violation. A stage_input_missing or
// stage_output_missing error is a programming error, not a degraded result,
// so it always fails the workflow shut rather than leaving SafetyResult nil.
func abortWithCriticalFlag(state *domain.WorkflowState, stageName, kind string, err error) {
	flag := domain.SafetyFlag{
		ID:          kind,
		Kind:        kind,
		Severity:    domain.SeverityCritical,
		Message:     err.Error(),
		SourceStage: stageName,
	}
	verdict := domain.SafetyVerdict{
		Passed:              false,
		RequiresHumanReview: true,
		Flags:               []domain.SafetyFlag{flag},
	}
	if state.SafetyResult != nil {
		verdict.Flags = append(state.SafetyResult.Flags, flag)
	}
	state.SafetyResult = &verdict
	state.WorkflowApproved = false
}
