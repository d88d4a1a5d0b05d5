// pkg/export/exporter.go
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/ecom-eda/pkg/converter"
	"github.com/David-Botos/ecom-eda/pkg/model"
)

// maxParams is PostgreSQL's limit of bind parameters per statement
const maxParams = 65535

// Target is the database an export writes to.
// connector.PostgresConnector satisfies it.
type Target interface {
	CreateTableIfNotExists(ctx context.Context, table string, columnDefs []string, primaryKey string) error
	BatchInsert(ctx context.Context, table string, columns []string, valueRows [][]interface{}, batchSize int) (int64, error)
}

// Result summarises one export
type Result struct {
	RunID        string        `json:"run_id"`
	Table        string        `json:"table"`
	RowsExpected int           `json:"rows_expected"`
	RowsWritten  int64         `json:"rows_written"`
	Batches      int           `json:"batches"`
	Duration     time.Duration `json:"duration_ns"`
	Verified     bool          `json:"verified"`
}

// Exporter writes a cleaned set to a PostgreSQL table, tagged with its run id
type Exporter struct {
	target    Target
	verifier  *Verifier
	conv      *converter.TypeConverter
	table     string
	batchSize int
	retry     RetryPolicy
	logger    *zap.Logger
}

// NewExporter creates an exporter for schema.table. verifier may be nil.
func NewExporter(
	target Target,
	verifier *Verifier,
	conv *converter.TypeConverter,
	schema, table string,
	batchSize int,
	logger *zap.Logger,
) (*Exporter, error) {
	if target == nil {
		return nil, errors.New("export target cannot be nil")
	}
	if conv == nil {
		return nil, errors.New("type converter cannot be nil")
	}
	if strings.TrimSpace(table) == "" {
		return nil, errors.New("export table cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Exporter{
		target:    target,
		verifier:  verifier,
		conv:      conv,
		table:     converter.QualifiedName(schema, table),
		batchSize: batchSize,
		retry:     DefaultRetryPolicy(),
		logger:    logger,
	}, nil
}

// SetRetryPolicy replaces the default retry policy for batch writes
func (e *Exporter) SetRetryPolicy(p RetryPolicy) {
	e.retry = p
}

// Table returns the quoted target table name
func (e *Exporter) Table() string {
	return e.table
}

// primaryKey mirrors the de-duplication key, scoped to a run
func primaryKey() string {
	return strings.Join([]string{
		pq.QuoteIdentifier("run_id"),
		pq.QuoteIdentifier(model.ColOrderID),
		pq.QuoteIdentifier(model.ColProductID),
		pq.QuoteIdentifier(model.ColCustomerID),
	}, ", ")
}

// chunkSize keeps every batch a single statement so a retried batch is
// either fully written or not at all
func (e *Exporter) chunkSize(columns int) int {
	size := e.batchSize
	if size <= 0 {
		size = 1000
	}
	if limit := maxParams / columns; size > limit {
		size = limit
	}
	return size
}

// Export creates the table if needed, writes every record and, when a
// verifier is configured, checks what landed
func (e *Exporter) Export(ctx context.Context, runID string, records []model.CleanRecord) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: runID, Table: e.table, RowsExpected: len(records)}

	if err := e.target.CreateTableIfNotExists(ctx, e.table, e.conv.GenerateColumnDefinitions(), primaryKey()); err != nil {
		return nil, fmt.Errorf("failed to prepare export table: %w", err)
	}

	columns := e.conv.ColumnNames()
	size := e.chunkSize(len(columns))

	for from := 0; from < len(records); from += size {
		to := min(from+size, len(records))
		rows := make([][]interface{}, 0, to-from)
		for i := from; i < to; i++ {
			rows = append(rows, e.conv.RowValues(runID, &records[i]))
		}

		var written int64
		err := withRetry(ctx, e.retry, e.logger, func() error {
			var err error
			written, err = e.target.BatchInsert(ctx, e.table, columns, rows, size)
			return err
		})
		if err != nil {
			result.Duration = time.Since(start)
			if CategorizeError(err) == ErrorCategoryConstraint {
				return result, fmt.Errorf("run %s conflicts with rows already in %s: %w", runID, e.table, err)
			}
			return result, fmt.Errorf("failed to export run %s at record %d: %w", runID, from, err)
		}
		result.RowsWritten += written
		result.Batches++
	}

	if result.RowsWritten != int64(len(records)) {
		e.logger.Warn("Row count mismatch after insert",
			zap.String("run_id", runID),
			zap.Int("expected", len(records)),
			zap.Int64("written", result.RowsWritten))
	}

	if e.verifier != nil {
		if err := e.verifier.Verify(ctx, e.table, runID, ExpectedTotals(records)); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		result.Verified = true
	}

	result.Duration = time.Since(start)
	e.logger.Info("Exported cleaned records",
		zap.String("run_id", runID),
		zap.String("table", e.table),
		zap.Int64("rows", result.RowsWritten),
		zap.Int("batches", result.Batches),
		zap.Bool("verified", result.Verified),
		zap.Duration("duration", result.Duration))

	return result, nil
}
