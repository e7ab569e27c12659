// Package domain holds the immutable value types of the core: entity, edge,
// path, evidence, citation, candidate, safety flag, and audit event.
// Each type has a validating constructor. Fields are exported, so code that
// rehydrates stored rows (pkg/graphstore) builds the structs directly
// without revalidating. The constructors mirror the
// artifact-validation discipline this is grounded on
// (other_examples/07e3f123_jndunlap-gohypo__app-hypothesis_service.go.go's
// "validate before persist" idiom).
package domain

import (
	"fmt"
	"strings"
)

// EntityKind is the closed set of biomedical concept kinds.
type EntityKind string

const (
	KindDrug      EntityKind = "drug"
	KindDisease   EntityKind = "disease"
	KindGene      EntityKind = "gene"
	KindProtein   EntityKind = "protein"
	KindPathway   EntityKind = "pathway"
	KindPhenotype EntityKind = "phenotype"
)

var validEntityKinds = map[EntityKind]bool{
	KindDrug: true, KindDisease: true, KindGene: true,
	KindProtein: true, KindPathway: true, KindPhenotype: true,
}

// ExtractionMethod is the closed set of sources that can produce an entity
// or edge, ordered by authority.
type ExtractionMethod string

const (
	MethodPattern     ExtractionMethod = "pattern"
	MethodNER         ExtractionMethod = "ner_model"
	MethodScorer      ExtractionMethod = "scorer_model"
	MethodSynthesizer ExtractionMethod = "synthesizer"
	MethodCurated     ExtractionMethod = "curated"
	// MethodNERRegex is produced by the ingestion pipeline's NER+regex
	// relation extraction; it carries the same authority as
	// MethodPattern since the relation half is regex-derived.
	MethodNERRegex ExtractionMethod = "ner+regex"
)

var methodAuthority = map[ExtractionMethod]int{
	MethodPattern:     0,
	MethodNERRegex:    0,
	MethodNER:         1,
	MethodScorer:      2,
	MethodSynthesizer: 2,
	MethodCurated:     3,
}

// HigherAuthority reports whether method a outranks method b on the
// monotonic authority order.
func HigherAuthority(a, b ExtractionMethod) bool {
	return methodAuthority[a] > methodAuthority[b]
}

// IsValidEntityKind reports whether kind is one of the closed set of
// biomedical concept kinds. Repositories building queries from a caller-
// supplied kind (e.g. a Search filter) check this before using the value,
// the SQL-world equivalent of allowlisting a label before building Cypher.
func IsValidEntityKind(kind EntityKind) bool {
	return validEntityKinds[kind]
}

// Entity is an immutable biomedical concept.
type Entity struct {
	ID                  string
	CanonicalName       string
	Kind                EntityKind
	Aliases             []string
	ExtractionMethod    ExtractionMethod
	ExtractionConfidence float64
	Metadata            map[string]string
}

var stopwords = map[string]bool{
	"the": true, "and": true, "or": true, "of": true, "in": true,
	"with": true, "for": true, "to": true, "a": true, "an": true,
	"this": true, "that": true, "it": true, "is": true, "be": true,
}

var relationWords = map[string]bool{
	"inhibits": true, "activates": true, "binds": true, "modulates": true,
	"upregulates": true, "downregulates": true, "phosphorylates": true,
	"catalyzes": true, "transports": true, "regulates": true,
	"associates_with": true, "treats": true, "causes": true, "prevents": true,
	"unknown": true,
}

// NewEntity constructs and validates an Entity. Name is normalized
// before validation and ID derivation.
func NewEntity(id string, rawName string, kind EntityKind, method ExtractionMethod, confidence float64, aliases []string, metadata map[string]string) (*Entity, error) {
	if !validEntityKinds[kind] {
		return nil, schemaInvalid("kind", fmt.Sprintf("unknown entity kind %q", kind))
	}

	name := NormalizeEntityName(rawName, kind)
	if err := validateEntityName(name); err != nil {
		return nil, err
	}

	if confidence < 0 || confidence > 1 {
		return nil, schemaInvalid("extraction_confidence", "must be within [0,1]")
	}

	if id == "" {
		id = DeriveEntityID(kind, name)
	}

	normalizedAliases := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if a = strings.TrimSpace(a); a != "" {
			normalizedAliases = append(normalizedAliases, a)
		}
	}

	return &Entity{
		ID:                   id,
		CanonicalName:        name,
		Kind:                 kind,
		Aliases:              normalizedAliases,
		ExtractionMethod:     method,
		ExtractionConfidence: confidence,
		Metadata:             metadata,
	}, nil
}

func validateEntityName(name string) error {
	if len(name) < 2 {
		return schemaInvalid("canonical_name", "must be at least 2 characters")
	}
	if isAllDigits(name) {
		return schemaInvalid("canonical_name", "must not be only digits")
	}
	lower := strings.ToLower(name)
	if relationWords[lower] {
		return schemaInvalid("canonical_name", "must not equal a relation word")
	}
	if stopwords[lower] {
		return schemaInvalid("canonical_name", "must not be a stopword")
	}
	return nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// DeriveEntityID builds the default `{kind}:{lower(name).snake_case}` id
// used when no curated external identifier is supplied.
func DeriveEntityID(kind EntityKind, canonicalName string) string {
	slug := strings.ToLower(canonicalName)
	slug = strings.Join(strings.Fields(slug), "_")
	return fmt.Sprintf("%s:%s", kind, slug)
}

// IsStopwordOrRelation reports whether label is disqualified from appearing
// as a node label in the graph projection.
func IsStopwordOrRelation(label string) bool {
	lower := strings.ToLower(strings.TrimSpace(label))
	return stopwords[lower] || relationWords[lower]
}
