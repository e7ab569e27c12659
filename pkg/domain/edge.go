package domain

// Relation is the closed set of edge relation types.
type Relation string

const (
	RelInhibits        Relation = "inhibits"
	RelActivates       Relation = "activates"
	RelBinds           Relation = "binds"
	RelModulates       Relation = "modulates"
	RelUpregulates     Relation = "upregulates"
	RelDownregulates   Relation = "downregulates"
	RelPhosphorylates  Relation = "phosphorylates"
	RelCatalyzes       Relation = "catalyzes"
	RelTransports      Relation = "transports"
	RelRegulates       Relation = "regulates"
	RelAssociatesWith  Relation = "associates_with"
	RelTreats          Relation = "treats"
	RelCauses          Relation = "causes"
	RelPrevents        Relation = "prevents"
	RelUnknown         Relation = "unknown"
)

var validRelations = map[Relation]bool{
	RelInhibits: true, RelActivates: true, RelBinds: true, RelModulates: true,
	RelUpregulates: true, RelDownregulates: true, RelPhosphorylates: true,
	RelCatalyzes: true, RelTransports: true, RelRegulates: true,
	RelAssociatesWith: true, RelTreats: true, RelCauses: true,
	RelPrevents: true, RelUnknown: true,
}

// NormalizeRelation maps any relation name outside the defined set to
// RelUnknown on read.
func NormalizeRelation(raw string) Relation {
	r := Relation(raw)
	if validRelations[r] {
		return r
	}
	return RelUnknown
}

// Edge is a directed, typed relation between two entity ids. Identity is
// the triple (SourceID, TargetID, Relation).
type Edge struct {
	SourceID              string
	TargetID              string
	Relation              Relation
	Confidence            float64
	ExtractionMethod      ExtractionMethod
	EvidenceCount         int
	SupportingCitationIDs []string
}

// EdgeIdentity is the merge key for edges.
type EdgeIdentity struct {
	SourceID string
	TargetID string
	Relation Relation
}

func (e *Edge) Identity() EdgeIdentity {
	return EdgeIdentity{SourceID: e.SourceID, TargetID: e.TargetID, Relation: e.Relation}
}

// NewEdge constructs and validates an Edge.
func NewEdge(sourceID, targetID string, relation Relation, confidence float64, method ExtractionMethod, citationIDs []string) (*Edge, error) {
	if sourceID == "" || targetID == "" {
		return nil, schemaInvalid("source_id/target_id", "must not be empty")
	}
	if !validRelations[relation] {
		return nil, schemaInvalid("relation", "unknown relation type")
	}
	if confidence < 0 || confidence > 1 {
		return nil, schemaInvalid("confidence", "must be within [0,1]")
	}
	citations := dedupeStrings(citationIDs)
	return &Edge{
		SourceID:              sourceID,
		TargetID:              targetID,
		Relation:              relation,
		Confidence:            confidence,
		ExtractionMethod:      method,
		EvidenceCount:         len(citations),
		SupportingCitationIDs: citations,
	}, nil
}

// MergeEdges merges incoming into existing per the identity-preserving merge
// policy: confidence takes the max, citations union, and the extraction
// method is kept from existing only when it outranks incoming's (incoming
// wins ties), using the same authority order as mergeEntity.
func MergeEdges(existing, incoming *Edge) *Edge {
	merged := *existing
	if incoming.Confidence > merged.Confidence {
		merged.Confidence = incoming.Confidence
	}
	if !HigherAuthority(existing.ExtractionMethod, incoming.ExtractionMethod) {
		merged.ExtractionMethod = incoming.ExtractionMethod
	}
	merged.SupportingCitationIDs = dedupeStrings(append(append([]string{}, existing.SupportingCitationIDs...), incoming.SupportingCitationIDs...))
	merged.EvidenceCount = len(merged.SupportingCitationIDs)
	return &merged
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
