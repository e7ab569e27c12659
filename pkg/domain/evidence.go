package domain

// EvidenceKind is the closed set of evidence categories.
type EvidenceKind string

const (
	EvidenceLiterature    EvidenceKind = "literature"
	EvidenceGraphPath     EvidenceKind = "graph_path"
	EvidenceClinicalTrial EvidenceKind = "clinical_trial"
	EvidenceMechanism     EvidenceKind = "mechanism"
)

// Evidence backs a candidate or mechanism path with a scored, described
// observation.
type Evidence struct {
	ID                string
	Kind              EvidenceKind
	Description       string
	Confidence        float64
	Citation          *Citation
	MechanismPath     *PathwayPath
	EntitiesMentioned []string
}

// NewEvidence constructs and validates an Evidence item.
func NewEvidence(id string, kind EvidenceKind, description string, confidence float64, citation *Citation, entitiesMentioned []string) (*Evidence, error) {
	if id == "" {
		return nil, schemaInvalid("id", "must not be empty")
	}
	if confidence < 0 || confidence > 1 {
		return nil, schemaInvalid("confidence", "must be within [0,1]")
	}
	return &Evidence{
		ID:                id,
		Kind:              kind,
		Description:       description,
		Confidence:        confidence,
		Citation:          citation,
		EntitiesMentioned: entitiesMentioned,
	}, nil
}
