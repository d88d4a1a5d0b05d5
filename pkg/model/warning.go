// pkg/model/warning.go
package model

import (
	"fmt"
	"sort"
	"strings"
)

// WarningCategory classifies a non-fatal issue met while cleaning
type WarningCategory int

const (
	// WarningNone marks operations that are not warnings (e.g. imputation)
	WarningNone WarningCategory = iota
	// ParseWarning means a field value failed type coercion and became null
	ParseWarning
	// FilteredRowWarning means a row was dropped by a filter stage
	FilteredRowWarning
)

// String returns a string representation of the category
func (c WarningCategory) String() string {
	switch c {
	case WarningNone:
		return "None"
	case ParseWarning:
		return "ParseWarning"
	case FilteredRowWarning:
		return "FilteredRowWarning"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// SchemaError reports required columns missing from an upload.
// It is the only error the pipeline returns for bad input.
type SchemaError struct {
	Missing []string
}

// NewSchemaError builds a SchemaError with the missing columns sorted
func NewSchemaError(missing []string) *SchemaError {
	cols := append([]string(nil), missing...)
	sort.Strings(cols)
	return &SchemaError{Missing: cols}
}

func (e *SchemaError) Error() string {
	if len(e.Missing) == 1 {
		return fmt.Sprintf("missing required column %q", e.Missing[0])
	}
	quoted := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return "missing required columns " + strings.Join(quoted, ", ")
}
