package domain

// Candidate is a (drug, disease) hypothesis backed by paths, evidence, and
// citations, with scores and an optional rank.
type Candidate struct {
	ID                string
	Drug              Entity
	Disease           Entity
	Hypothesis        string
	MechanismSummary  string
	OverallScore      float64
	Confidence        float64
	Novelty           float64
	MechanismPaths    []PathwayPath
	Evidence          []Evidence
	Citations         []Citation
	Rank              *int
}

// NewCandidate constructs and validates a Candidate. When overallScore
// includes a simulation term the caller must ensure confidence <=
// overallScore; this constructor only checks the
// bounds of each field, since whether a simulation term is included is a
// caller-level fact the domain type cannot infer.
func NewCandidate(id string, drug, disease Entity, hypothesis, mechanismSummary string, overallScore, confidence, novelty float64, paths []PathwayPath, evidence []Evidence, citations []Citation) (*Candidate, error) {
	if id == "" {
		return nil, schemaInvalid("id", "must not be empty")
	}
	for field, v := range map[string]float64{"overall_score": overallScore, "confidence": confidence, "novelty": novelty} {
		if v < 0 || v > 1 {
			return nil, schemaInvalid(field, "must be within [0,1]")
		}
	}
	return &Candidate{
		ID:               id,
		Drug:             drug,
		Disease:          disease,
		Hypothesis:       hypothesis,
		MechanismSummary: mechanismSummary,
		OverallScore:     overallScore,
		Confidence:       confidence,
		Novelty:          novelty,
		MechanismPaths:   paths,
		Evidence:         evidence,
		Citations:        citations,
	}, nil
}

// WithRank returns a copy of the candidate with Rank set.
func (c Candidate) WithRank(rank int) Candidate {
	c.Rank = &rank
	return c
}

// EvidenceCount returns the number of evidence items backing the candidate.
func (c *Candidate) EvidenceCount() int {
	return len(c.Evidence)
}

// CitationIDs returns the set of citation source ids attached to the candidate.
func (c *Candidate) CitationIDs() []string {
	ids := make([]string, 0, len(c.Citations))
	for _, cit := range c.Citations {
		ids = append(ids, cit.SourceID)
	}
	return ids
}
