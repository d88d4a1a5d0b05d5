// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/ecom-eda/pkg/converter"
	"github.com/David-Botos/ecom-eda/pkg/model"
)

// Recorder persists the cleaning operations of a run
type Recorder interface {
	RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) error
}

// Result is the output of one pipeline run. Records is never mutated
// after Clean returns.
type Result struct {
	Records    []model.CleanRecord
	Report     model.Report
	Operations []model.CleaningOperation
}

// DataCleaner turns a raw transactions table into an analysis-ready one
type DataCleaner struct {
	converter *converter.TypeConverter
	recorder  Recorder
	metrics   *Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a DataCleaner
type Option func(*DataCleaner)

// WithRecorder persists every run's cleaning operations
func WithRecorder(r Recorder) Option {
	return func(c *DataCleaner) { c.recorder = r }
}

// WithMetrics reports every run to the given metrics
func WithMetrics(m *Metrics) Option {
	return func(c *DataCleaner) { c.metrics = m }
}

// WithConverter replaces the default type converter
func WithConverter(tc *converter.TypeConverter) Option {
	return func(c *DataCleaner) { c.converter = tc }
}

// WithClock overrides the time source used for run timestamps
func WithClock(now func() time.Time) Option {
	return func(c *DataCleaner) { c.now = now }
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(logger *zap.Logger, opts ...Option) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	cleaner := &DataCleaner{
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(cleaner)
	}
	if cleaner.converter == nil {
		cleaner.converter = converter.NewTypeConverter(logger)
	}

	return cleaner, nil
}

// ValidateSchema checks that every required column is present
func ValidateSchema(table model.RawTable) error {
	var missing []string
	for _, col := range model.RequiredColumns {
		if !table.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return model.NewSchemaError(missing)
	}
	return nil
}

// Clean runs every pipeline stage over the table. The only error for bad
// input is a *model.SchemaError; malformed values and rejected rows are
// absorbed and counted in the report.
func (c *DataCleaner) Clean(ctx context.Context, table model.RawTable) (*Result, error) {
	if err := ValidateSchema(table); err != nil {
		c.logger.Warn("Rejected upload",
			zap.String("source", table.Source),
			zap.Error(err))
		return nil, err
	}

	started := c.now()
	r := newRun(uuid.New().String(), table.Source, started, c.converter)

	rows := r.coerce(table.Records)
	median, hasMedian := r.quantityMedian(rows)
	rows = r.dropNullKeys(rows)
	rows = r.imputeQuantity(rows, median, hasMedian)
	rows = r.dedupe(rows)
	rows = r.filterValid(rows)

	records := make([]model.CleanRecord, 0, len(rows))
	for i := range rows {
		records = append(records, r.build(&rows[i]))
	}

	r.report.OutputRows = len(records)
	r.report.Duration = c.now().Sub(started)

	result := &Result{
		Records:    records,
		Report:     *r.report,
		Operations: r.ops,
	}

	c.logger.Info("Cleaned upload",
		zap.String("run_id", result.Report.RunID),
		zap.String("source", result.Report.Source),
		zap.Int("input_rows", result.Report.InputRows),
		zap.Int("output_rows", result.Report.OutputRows),
		zap.Int("dropped_rows", result.Report.DroppedRows()),
		zap.Int("imputed_quantities", result.Report.ImputedQuantities),
		zap.Int("parse_warnings", result.Report.TotalParseWarnings()),
		zap.Duration("duration", result.Report.Duration))

	if c.metrics != nil {
		c.metrics.Observe(&result.Report)
	}

	if c.recorder != nil && len(result.Operations) > 0 {
		if err := c.recorder.RecordCleaningOperations(ctx, result.Operations); err != nil {
			return result, fmt.Errorf("failed to record cleaning operations: %w", err)
		}
	}

	return result, nil
}
