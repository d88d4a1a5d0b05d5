package export

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/ecom-eda/pkg/converter"
	"github.com/David-Botos/ecom-eda/pkg/model"
)

type fakeTarget struct {
	table      string
	defs       []string
	primaryKey string
	columns    []string
	batches    [][][]interface{}
	batchSize  int

	// errors returned by successive BatchInsert calls before succeeding
	failures []error
	calls    int
}

func (f *fakeTarget) CreateTableIfNotExists(_ context.Context, table string, defs []string, pk string) error {
	f.table, f.defs, f.primaryKey = table, defs, pk
	return nil
}

func (f *fakeTarget) BatchInsert(_ context.Context, _ string, columns []string, rows [][]interface{}, batchSize int) (int64, error) {
	f.calls++
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		if err != nil {
			return 0, err
		}
	}
	f.columns, f.batchSize = columns, batchSize
	f.batches = append(f.batches, rows)
	return int64(len(rows)), nil
}

func records(n int) []model.CleanRecord {
	out := make([]model.CleanRecord, n)
	for i := range out {
		out[i] = model.CleanRecord{
			OrderID:    fmt.Sprint(i + 1),
			ProductID:  "A",
			CustomerID: "X",
			Price:      10,
			Quantity:   2,
			Revenue:    20,
		}
	}
	return out
}

func newTestExporter(t *testing.T, target Target, batchSize int) *Exporter {
	t.Helper()
	exp, err := NewExporter(target, nil, converter.NewTypeConverter(nil), "analytics", "cleaned_orders", batchSize, zaptest.NewLogger(t))
	require.NoError(t, err)
	exp.SetRetryPolicy(RetryPolicy{MaxRetries: 2})
	return exp
}

func TestExport(t *testing.T) {
	target := &fakeTarget{}
	conv := converter.NewTypeConverter(nil)
	exp := newTestExporter(t, target, 2)

	res, err := exp.Export(context.Background(), "run-1", records(5))
	require.NoError(t, err)

	assert.Equal(t, `"analytics"."cleaned_orders"`, target.table)
	assert.Equal(t, `"run_id", "order_id", "product_id", "customer_id"`, target.primaryKey)
	assert.Equal(t, conv.GenerateColumnDefinitions(), target.defs)
	assert.Equal(t, conv.ColumnNames(), target.columns)
	assert.Equal(t, 2, target.batchSize)

	require.Len(t, target.batches, 3)
	assert.Len(t, target.batches[2], 1)
	assert.Equal(t, "run-1", target.batches[0][0][0])

	assert.Equal(t, int64(5), res.RowsWritten)
	assert.Equal(t, 5, res.RowsExpected)
	assert.Equal(t, 3, res.Batches)
	assert.False(t, res.Verified)
}

func TestExportChunkRespectsParameterLimit(t *testing.T) {
	exp := newTestExporter(t, &fakeTarget{}, 100000)
	columns := len(converter.NewTypeConverter(nil).ColumnNames())
	assert.Equal(t, maxParams/columns, exp.chunkSize(columns))

	exp = newTestExporter(t, &fakeTarget{}, 0)
	assert.Equal(t, 1000, exp.chunkSize(columns))
}

func TestExportRetriesTransientErrors(t *testing.T) {
	target := &fakeTarget{failures: []error{
		&pgconn.PgError{Code: "08006"},
		&pgconn.PgError{Code: "40001"},
	}}
	exp := newTestExporter(t, target, 10)

	res, err := exp.Export(context.Background(), "run-1", records(3))
	require.NoError(t, err)
	assert.Equal(t, 3, target.calls)
	assert.Equal(t, int64(3), res.RowsWritten)
}

func TestExportGivesUpAfterRetries(t *testing.T) {
	bad := &pgconn.PgError{Code: "08006"}
	target := &fakeTarget{failures: []error{bad, bad, bad, bad}}
	exp := newTestExporter(t, target, 10)

	_, err := exp.Export(context.Background(), "run-1", records(3))
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, 3, target.calls)
}

func TestExportConflict(t *testing.T) {
	conflict := &pgconn.PgError{Code: "23505"}
	target := &fakeTarget{failures: []error{conflict}}
	exp := newTestExporter(t, target, 10)

	_, err := exp.Export(context.Background(), "run-1", records(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicts with rows already in")
	assert.Equal(t, 1, target.calls)
}

func TestNewExporterValidation(t *testing.T) {
	conv := converter.NewTypeConverter(nil)
	_, err := NewExporter(nil, nil, conv, "", "orders", 0, nil)
	assert.Error(t, err)
	_, err = NewExporter(&fakeTarget{}, nil, nil, "", "orders", 0, nil)
	assert.Error(t, err)
	_, err = NewExporter(&fakeTarget{}, nil, conv, "", " ", 0, nil)
	assert.Error(t, err)
}

func TestCompareTotals(t *testing.T) {
	expected := ExpectedTotals(records(2))
	assert.Equal(t, Totals{Rows: 2, Revenue: 40}, expected)

	assert.NoError(t, CompareTotals(expected, Totals{Rows: 2, Revenue: 40.0000001}, 1e-6))
	assert.ErrorIs(t, CompareTotals(expected, Totals{Rows: 1, Revenue: 40}, 1e-6), ErrVerification)
	assert.ErrorIs(t, CompareTotals(expected, Totals{Rows: 2, Revenue: 39}, 1e-6), ErrVerification)
}

func TestNewVerifierRequiresDB(t *testing.T) {
	_, err := NewVerifier(nil, 1e-6, nil)
	assert.Error(t, err)
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ErrorCategoryNone},
		{"connection failure", &pgconn.PgError{Code: "08006"}, ErrorCategoryTransient},
		{"deadlock", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "40P01"}), ErrorCategoryTransient},
		{"unique violation", &pgconn.PgError{Code: "23505"}, ErrorCategoryConstraint},
		{"syntax error", &pgconn.PgError{Code: "42601"}, ErrorCategoryFatal},
		{"deadline", context.DeadlineExceeded, ErrorCategoryTransient},
		{"canceled", context.Canceled, ErrorCategoryFatal},
		{"other", errors.New("boom"), ErrorCategoryFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeError(tt.err))
		})
	}
}

func TestWithRetryStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, RetryPolicy{MaxRetries: 5, Backoff: 1}, zaptest.NewLogger(t), func() error {
		calls++
		return context.DeadlineExceeded
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
