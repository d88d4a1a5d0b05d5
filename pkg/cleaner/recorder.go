// pkg/cleaner/recorder.go
package cleaner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/ecom-eda/pkg/converter"
	"github.com/David-Botos/ecom-eda/pkg/model"
)

// recordBatchSize bounds the rows per INSERT so bind parameters stay well
// under PostgreSQL's 65535 limit
const recordBatchSize = 1000

// PostgresRecorder stores cleaning operations in an audit table
type PostgresRecorder struct {
	db     *sqlx.DB
	table  string
	logger *zap.Logger
}

// NewPostgresRecorder wraps db and ensures the audit table exists
func NewPostgresRecorder(ctx context.Context, db *sql.DB, schema string, logger *zap.Logger) (*PostgresRecorder, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	recorder := &PostgresRecorder{
		db:     sqlx.NewDb(db, "pgx"),
		table:  converter.QualifiedName(schema, "cleaning_operations"),
		logger: logger,
	}

	if err := recorder.setupCleaningTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup cleaning table: %w", err)
	}

	return recorder, nil
}

// setupCleaningTable ensures the cleaning_operations tracking table exists
func (p *PostgresRecorder) setupCleaningTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := p.db.ExecContext(ctx, createOperationsTableSQL(p.table))
	if err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	p.logger.Info("Ensured cleaning operations table exists", zap.String("table", p.table))
	return nil
}

func createOperationsTableSQL(table string) string {
	return `
		CREATE TABLE IF NOT EXISTS ` + table + ` (
			id SERIAL PRIMARY KEY,
			run_id UUID NOT NULL,
			line INTEGER NOT NULL,
			row_identifier TEXT NOT NULL,
			column_name TEXT NOT NULL,
			original_value TEXT,
			new_value TEXT,
			cleaning_operation TEXT NOT NULL,
			cleaning_reason TEXT NOT NULL,
			cleaned_at TIMESTAMP WITH TIME ZONE NOT NULL
		)
	`
}

func insertOperationsSQL(table string) string {
	return `
		INSERT INTO ` + table + `
		(run_id, line, row_identifier, column_name, original_value, new_value,
		 cleaning_operation, cleaning_reason, cleaned_at)
		VALUES (:run_id, :line, :row_identifier, :column_name, :original_value, :new_value,
		 :cleaning_operation, :cleaning_reason, :cleaned_at)
	`
}

// RecordCleaningOperations batch inserts operations in one transaction
func (p *PostgresRecorder) RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) (err error) {
	if len(operations) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				p.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	query := insertOperationsSQL(p.table)
	for start := 0; start < len(operations); start += recordBatchSize {
		end := start + recordBatchSize
		if end > len(operations) {
			end = len(operations)
		}
		if _, err = tx.NamedExecContext(ctx, query, operations[start:end]); err != nil {
			return fmt.Errorf("failed to insert cleaning operations: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	p.logger.Info("Recorded cleaning operations", zap.Int("count", len(operations)))
	return nil
}
