package main

import "github.com/biomind/repurposing/pkg/domain"

// queryResponse is the POST /query response body.
type queryResponse struct {
	RequestID        string              `json:"request_id"`
	Approved         bool                `json:"approved"`
	Candidates       []candidateResponse `json:"candidates"`
	SafetyFlags      []domain.SafetyFlag `json:"safety_flags,omitempty"`
	RequiresReview   bool                `json:"requires_human_review"`
	Errors           []string            `json:"errors,omitempty"`
}

type candidateResponse struct {
	ID               string   `json:"id"`
	Drug             string   `json:"drug"`
	Disease          string   `json:"disease"`
	Hypothesis       string   `json:"hypothesis"`
	MechanismSummary string   `json:"mechanism_summary"`
	OverallScore     float64  `json:"overall_score"`
	Confidence       float64  `json:"confidence"`
	Novelty          float64  `json:"novelty"`
	Rank             *int     `json:"rank,omitempty"`
	CitationIDs      []string `json:"citation_ids"`
}

func toQueryResponse(state *domain.WorkflowState) queryResponse {
	resp := queryResponse{
		RequestID:  state.RequestID,
		Approved:   state.WorkflowApproved,
		Candidates: make([]candidateResponse, 0, len(state.FinalCandidates)),
		Errors:     state.Errors,
	}
	if state.SafetyResult != nil {
		resp.SafetyFlags = state.SafetyResult.Flags
		resp.RequiresReview = state.SafetyResult.RequiresHumanReview
	}
	for _, c := range state.FinalCandidates {
		resp.Candidates = append(resp.Candidates, candidateResponse{
			ID:               c.ID,
			Drug:             c.Drug.CanonicalName,
			Disease:          c.Disease.CanonicalName,
			Hypothesis:       c.Hypothesis,
			MechanismSummary: c.MechanismSummary,
			OverallScore:     c.OverallScore,
			Confidence:       c.Confidence,
			Novelty:          c.Novelty,
			Rank:             c.Rank,
			CitationIDs:      c.CitationIDs(),
		})
	}
	return resp
}

type graphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type graphEdge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Relation   string  `json:"relation"`
	Confidence float64 `json:"confidence"`
}

type graphView struct {
	Nodes []graphNode `json:"nodes"`
	Edges []graphEdge `json:"edges"`
}

// graphProjection builds the /reports/{id}/graph view from the candidates'
// accepted mechanism paths only:
// every node label must come from an entity on an accepted path edge, and
// any label that is a stopword or relation word is hard-rejected rather than
// silently degraded.
func graphProjection(state *domain.WorkflowState) graphView {
	names := map[string]string{}
	for _, e := range state.ExtractedEntities {
		names[e.ID] = e.CanonicalName
	}

	view := graphView{Nodes: []graphNode{}, Edges: []graphEdge{}}
	seenNodes := map[string]bool{}
	seenEdges := map[string]bool{}

	addNode := func(id string) {
		if id == "" || seenNodes[id] {
			return
		}
		label, ok := names[id]
		if !ok {
			label = id
		}
		if domain.IsStopwordOrRelation(label) {
			return
		}
		seenNodes[id] = true
		view.Nodes = append(view.Nodes, graphNode{ID: id, Label: label})
	}

	for _, c := range state.FinalCandidates {
		for _, path := range c.MechanismPaths {
			for _, edge := range path.Edges {
				addNode(edge.SourceID)
				addNode(edge.TargetID)

				key := edge.SourceID + "|" + edge.TargetID + "|" + string(edge.Relation)
				if seenEdges[key] {
					continue
				}
				seenEdges[key] = true
				view.Edges = append(view.Edges, graphEdge{
					Source:     edge.SourceID,
					Target:     edge.TargetID,
					Relation:   string(edge.Relation),
					Confidence: edge.Confidence,
				})
			}
		}
	}
	return view
}
