// pkg/model/cleaning.go
package model

import (
	"time"
)

// Cleaning operation kinds
const (
	OpCoercionFailed  = "type_coercion_failed"
	OpQuantityImputed = "quantity_imputed"
	OpRowDropped      = "row_dropped"
)

// Reasons a row is dropped, one per filter
const (
	ReasonNullKey         = "null_key"
	ReasonDuplicate       = "duplicate"
	ReasonInvalidPrice    = "invalid_price"
	ReasonInvalidQuantity = "invalid_quantity"
	ReasonInvalidDiscount = "invalid_discount"
)

// CleaningOperation represents a single data cleaning operation
type CleaningOperation struct {
	RunID         string          `db:"run_id"`
	Category      WarningCategory `db:"-"`
	Line          int             `db:"line"`           // Source row number
	RowIdentifier string          `db:"row_identifier"` // order/product/customer
	ColumnName    string          `db:"column_name"`    // Empty for row-level operations
	OriginalValue *string         `db:"original_value"` // nil when the raw value was null
	NewValue      *string         `db:"new_value"`
	Operation     string          `db:"cleaning_operation"`
	Reason        string          `db:"cleaning_reason"`
	CleanedAt     time.Time       `db:"cleaned_at"`
}

// Report summarises what a pipeline run removed or changed
type Report struct {
	RunID     string
	Source    string
	StartedAt time.Time
	Duration  time.Duration

	InputRows  int
	OutputRows int

	NullKeyRows              int
	DuplicateRows            int
	InvalidPriceQuantityRows int
	InvalidDiscountRows      int

	ImputedQuantities int
	QuantityMedian    float64
	HasMedian         bool

	ParseWarnings    map[string]int // column -> malformed values
	MissingDatetimes int            // retained rows without an order datetime
}

// DroppedRows returns the total number of rows removed by all filters
func (r Report) DroppedRows() int {
	return r.NullKeyRows + r.DuplicateRows + r.InvalidPriceQuantityRows + r.InvalidDiscountRows
}

// TotalParseWarnings returns the number of malformed values across all columns
func (r Report) TotalParseWarnings() int {
	total := 0
	for _, n := range r.ParseWarnings {
		total += n
	}
	return total
}
