package domain

import (
	"fmt"

	coreerrors "github.com/biomind/repurposing/pkg/shared/errors"
)

// SchemaError reports a domain-model validation failure against the
// offending field.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema_invalid: field %q: %s", e.Field, e.Reason)
}

func schemaInvalid(field, reason string) error {
	return coreerrors.New(coreerrors.KindInputInvalid, &SchemaError{Field: field, Reason: reason})
}
