package domain

import "fmt"

// PathwayPath is an ordered chain of edges from a drug to a disease with an
// aggregated confidence.
type PathwayPath struct {
	ID                 string
	Edges              []Edge
	AggregatedConfidence float64
	EvidenceSupport    float64
	Rationale          string
}

// NewPathwayPath constructs and validates a PathwayPath: edges must be
// non-empty and form a chain (edge[i].target == edge[i+1].source).
func NewPathwayPath(id string, edges []Edge, aggregatedConfidence, evidenceSupport float64, rationale string) (*PathwayPath, error) {
	if len(edges) == 0 {
		return nil, schemaInvalid("edges", "path must have length >= 1")
	}
	for i := 0; i < len(edges)-1; i++ {
		if edges[i].TargetID != edges[i+1].SourceID {
			return nil, schemaInvalid("edges", fmt.Sprintf("edge chain broken at index %d: %s != %s", i, edges[i].TargetID, edges[i+1].SourceID))
		}
	}
	if aggregatedConfidence < 0 || aggregatedConfidence > 1 {
		return nil, schemaInvalid("aggregated_confidence", "must be within [0,1]")
	}
	return &PathwayPath{
		ID:                   id,
		Edges:                append([]Edge{}, edges...),
		AggregatedConfidence: aggregatedConfidence,
		EvidenceSupport:      evidenceSupport,
		Rationale:            rationale,
	}, nil
}

// Source returns the id of the path's starting entity (source of the first edge).
func (p *PathwayPath) Source() string {
	return p.Edges[0].SourceID
}

// Target returns the id of the path's ending entity (target of the last edge).
func (p *PathwayPath) Target() string {
	return p.Edges[len(p.Edges)-1].TargetID
}

// EntityIDs returns the set of distinct entity ids visited by the path.
func (p *PathwayPath) EntityIDs() []string {
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, e := range p.Edges {
		add(e.SourceID)
		add(e.TargetID)
	}
	return ids
}
