// pkg/export/verifier.go
package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/David-Botos/ecom-eda/pkg/model"
)

// Totals are the aggregates compared between the cleaned set and the table
type Totals struct {
	Rows    int64
	Revenue float64
}

// ExpectedTotals computes the totals of a cleaned set
func ExpectedTotals(records []model.CleanRecord) Totals {
	t := Totals{Rows: int64(len(records))}
	for i := range records {
		t.Revenue += records[i].Revenue
	}
	return t
}

// Verifier checks that an export landed completely
type Verifier struct {
	db        *sql.DB
	tolerance float64
	logger    *zap.Logger
}

// NewVerifier creates a verifier. tolerance bounds the relative revenue
// difference accepted after the round trip through the database.
func NewVerifier(db *sql.DB, tolerance float64, logger *zap.Logger) (*Verifier, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{db: db, tolerance: tolerance, logger: logger}, nil
}

// Verify reads the run's totals back from table and compares them
func (v *Verifier) Verify(ctx context.Context, table, runID string, expected Totals) error {
	var actual Totals
	query := fmt.Sprintf(`SELECT COUNT(*), COALESCE(SUM("revenue"), 0) FROM %s WHERE "run_id" = $1`, table)
	if err := v.db.QueryRowContext(ctx, query, runID).Scan(&actual.Rows, &actual.Revenue); err != nil {
		return fmt.Errorf("failed to read back run %s: %w", runID, err)
	}

	if err := CompareTotals(expected, actual, v.tolerance); err != nil {
		v.logger.Error("Export verification failed",
			zap.String("run_id", runID),
			zap.String("table", table),
			zap.Error(err))
		return err
	}

	v.logger.Debug("Export verified",
		zap.String("run_id", runID),
		zap.Int64("rows", actual.Rows),
		zap.Float64("revenue", actual.Revenue))
	return nil
}

// ErrVerification is returned when exported data does not match
var ErrVerification = errors.New("export verification failed")

// CompareTotals reports a mismatch between expected and actual totals
func CompareTotals(expected, actual Totals, tolerance float64) error {
	if expected.Rows != actual.Rows {
		return fmt.Errorf("%w: expected %d rows, found %d", ErrVerification, expected.Rows, actual.Rows)
	}
	diff := math.Abs(expected.Revenue - actual.Revenue)
	scale := math.Max(1, math.Abs(expected.Revenue))
	if diff/scale > tolerance {
		return fmt.Errorf("%w: expected revenue %.6f, found %.6f", ErrVerification, expected.Revenue, actual.Revenue)
	}
	return nil
}
