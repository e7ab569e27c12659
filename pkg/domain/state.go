package domain

import "time"

// Query is the parsed, validated submit-query request.
type Query struct {
	Text                 string
	MaxCandidates        int
	MinConfidence        float64
	IncludeExperimental  bool
	DrugHint             string
	DiseaseHint          string
}

// GraphContext is the preloaded knowledge-graph neighborhood the
// orchestrator loads before driving the stage pipeline.
type GraphContext struct {
	DrugTargets  []Edge
	DiseaseGenes []Edge
	PathwayEdges []Edge
	Neighbors    map[string][]Edge
}

// StageTiming records one stage's telemetry.
type StageTiming struct {
	Stage    string
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// WorkflowState is the single mutable record threaded through the pipeline.
// Stage contracts declare which fields they read and write (see
// pkg/pipeline); a missing required field is a programming error
// (stage_input_missing), never a silent nil.
type WorkflowState struct {
	Query     Query
	RequestID string
	UserID    string

	Preloaded GraphContext

	// Per-stage outputs, populated in pipeline order.
	ExtractedEntities  []Entity
	LiteratureEvidence []Evidence
	LiteratureCitations []Citation
	SimulationResult   *SimulationResult
	MechanismPaths     []PathwayPath
	DrugCandidates     []Candidate
	RankedCandidates   []Candidate
	SafetyResult       *SafetyVerdict
	FinalCandidates    []Candidate
	WorkflowApproved   bool

	CurrentStage string
	StageHistory []string
	StageTimings []StageTiming
	Errors       []string
}

// SimulationResult is the pathway simulator's output.
type SimulationResult struct {
	AcceptedPaths []PathwayPath
	RejectedPaths []RejectedPath
	Plausibility  float64
}

// RejectedPath records a path that failed the acceptance threshold, with
// the same descriptive fields as an accepted path plus the failing reason.
type RejectedPath struct {
	Description string
	FinalConf   float64
	Reason      string
}

// NewWorkflowState builds the initial state the orchestrator hands to the
// stage pipeline.
func NewWorkflowState(query Query, requestID, userID string, preloaded GraphContext) *WorkflowState {
	return &WorkflowState{
		Query:        query,
		RequestID:    requestID,
		UserID:       userID,
		Preloaded:    preloaded,
		StageHistory: []string{},
		Errors:       []string{},
	}
}

// RecordError appends a degraded-path note to state.Errors without aborting
// the pipeline.
func (s *WorkflowState) RecordError(stage string, err error) {
	s.Errors = append(s.Errors, stage+": "+err.Error())
}
