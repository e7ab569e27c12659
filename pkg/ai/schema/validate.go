// Package schema validates the JSON shape of a synthesizer or scorer
// response before the caller trusts it. kin-openapi and gojq have no other
// home in this repo, so schema validation and defensive field extraction
// are where they land.
package schema

import (
	"context"
	"encoding/json"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/itchyny/gojq"

	coreerrors "github.com/biomind/repurposing/pkg/shared/errors"
)

// Hypothesis is the declared shape of a GenerateHypothesis response.
var Hypothesis = mustSchema(`{
	"type": "object",
	"required": ["hypothesis", "mechanism_summary"],
	"properties": {
		"hypothesis": {"type": "string", "minLength": 1},
		"mechanism_summary": {"type": "string"}
	}
}`)

// Extraction is the declared shape of an ExtractEntities response.
var Extraction = mustSchema(`{
	"type": "object",
	"required": ["entities"],
	"properties": {
		"entities": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "kind", "confidence"],
				"properties": {
					"name": {"type": "string"},
					"kind": {"type": "string"},
					"confidence": {"type": "number"}
				}
			}
		}
	}
}`)

// Score is the declared shape of a score_relation/score_evidence response.
var Score = mustSchema(`{
	"type": "object",
	"required": ["score"],
	"properties": {
		"score": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`)

// Explanation is the declared shape of an ExplainPathway response.
var Explanation = mustSchema(`{
	"type": "object",
	"required": ["explanation"],
	"properties": {
		"explanation": {"type": "string", "minLength": 1}
	}
}`)

func mustSchema(raw string) *openapi3.Schema {
	var s openapi3.Schema
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		panic(err)
	}
	return &s
}

// Validate parses raw as JSON and checks it against schema, returning
// external_contract_violation on either failure.
func Validate(schema *openapi3.Schema, raw []byte) (map[string]interface{}, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, coreerrors.New(coreerrors.KindExternalContractBroken, err)
	}
	if err := schema.VisitJSON(doc); err != nil {
		return nil, coreerrors.New(coreerrors.KindExternalContractBroken, err)
	}
	asMap, ok := doc.(map[string]interface{})
	if !ok {
		return nil, coreerrors.New(coreerrors.KindExternalContractBroken, errNotObject)
	}
	return asMap, nil
}

var errNotObject = jsonNotObjectError{}

type jsonNotObjectError struct{}

func (jsonNotObjectError) Error() string { return "decoded JSON value is not an object" }

// ExtractField runs a gojq query against doc, used by ExplainPathway to
// defensively pull a nested field out of a synthesizer response whose exact
// shape may vary across prompt revisions without failing the whole call.
func ExtractField(doc map[string]interface{}, query string) (interface{}, error) {
	q, err := gojq.Parse(query)
	if err != nil {
		return nil, coreerrors.New(coreerrors.KindExternalContractBroken, err)
	}
	iter := q.RunWithContext(context.Background(), doc)
	v, ok := iter.Next()
	if !ok {
		return nil, nil
	}
	if err, ok := v.(error); ok {
		return nil, coreerrors.New(coreerrors.KindExternalContractBroken, err)
	}
	return v, nil
}
