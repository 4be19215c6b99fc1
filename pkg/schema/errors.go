package schema

import "errors"

// ErrInvalidSchema is returned when a schema model is malformed. Generation
// stops on it rather than emitting partially correct code.
var ErrInvalidSchema = errors.New("openhelper/schema: invalid schema")

// IsInvalidSchemaErr returns true if err is or wraps ErrInvalidSchema.
func IsInvalidSchemaErr(err error) bool {
	return errors.Is(err, ErrInvalidSchema)
}
