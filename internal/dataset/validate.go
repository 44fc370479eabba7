package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchema is matched by every SchemaError
var ErrSchema = errors.New("dataset schema invalid")

// SchemaError reports required columns absent from a dataset header
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing columns: %s (required: %s)",
		strings.Join(e.Missing, ", "), strings.Join(RequiredColumns, ", "))
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// Validate checks that every required column is present. Only the header is inspected.
func Validate(d *Dataset) error {
	var missing []string
	for _, name := range RequiredColumns {
		if !d.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}
