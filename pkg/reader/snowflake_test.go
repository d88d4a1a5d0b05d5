package reader

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/ecom-eda/pkg/cleaner"
	"github.com/David-Botos/ecom-eda/pkg/connector"
)

var (
	_ StreamQuerier        = (*connector.SnowflakeConnector)(nil)
	_ connector.RowScanner = (*sql.Rows)(nil)
)

type fakeRows struct {
	columns []string
	rows    [][]sql.NullString
	at      int
}

func (f *fakeRows) Columns() ([]string, error) {
	return f.columns, nil
}

func (f *fakeRows) Scan(dest ...interface{}) error {
	for i, d := range dest {
		*d.(*sql.NullString) = f.rows[f.at][i]
	}
	return nil
}

// fakeQuerier serves rows in the order given, like a single result set
type fakeQuerier struct {
	columns []string
	rows    [][]sql.NullString
	queries []string
}

func (q *fakeQuerier) StreamQuery(_ context.Context, query string, processor func(connector.RowScanner) error) error {
	q.queries = append(q.queries, query)
	r := &fakeRows{columns: q.columns, rows: q.rows}
	for r.at = 0; r.at < len(r.rows); r.at++ {
		if err := processor(r); err != nil {
			return err
		}
	}
	return nil
}

func text(values ...string) []sql.NullString {
	out := make([]sql.NullString, len(values))
	for i, v := range values {
		if v != "" {
			out[i] = sql.NullString{String: v, Valid: true}
		}
	}
	return out
}

func ordersQuerier() *fakeQuerier {
	return &fakeQuerier{
		columns: []string{"ORDER_ID", "PRODUCT_ID", "CUSTOMER_ID", "ORDER_DATE", "PRICE", "DISCOUNT", "QUANTITY", "REGION"},
		rows: [][]sql.NullString{
			text("1", "A", "X", "2024-03-15", "10", "0", "1", "North"),
			text("1", "A", "X", "2024-03-15", "20", "0", "1", "South"),
			text("2", "B", "Y", "2024-03-16", "5", "1", "2", ""),
			text("1", "A", "X", "2024-03-15", "30", "0", "1", "East"),
		},
	}
}

func TestSnowflakeSourceValidation(t *testing.T) {
	_, err := NewSnowflakeSource(nil, "orders", "", nil)
	assert.Error(t, err)
	_, err = NewSnowflakeSource(&fakeQuerier{}, "orders;--", "", nil)
	assert.Error(t, err)
	_, err = NewSnowflakeSource(&fakeQuerier{}, "orders", "seq; DROP", nil)
	assert.Error(t, err)
	_, err = NewSnowflakeSource(&fakeQuerier{}, "orders", "RAW.SEQ", nil)
	assert.Error(t, err)
}

func TestSnowflakeSourceQuery(t *testing.T) {
	src, err := NewSnowflakeSource(&fakeQuerier{}, "RAW.SALES.ORDERS", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM RAW.SALES.ORDERS", src.Query())

	src, err = NewSnowflakeSource(&fakeQuerier{}, "RAW.SALES.ORDERS", "LOAD_SEQ", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM RAW.SALES.ORDERS ORDER BY LOAD_SEQ", src.Query())
}

func TestSnowflakeSourceReadsEveryRowOnceInOrder(t *testing.T) {
	q := ordersQuerier()
	src, err := NewSnowflakeSource(q, "RAW.SALES.ORDERS", "", zaptest.NewLogger(t))
	require.NoError(t, err)

	table, err := src.Read(context.Background())
	require.NoError(t, err)

	require.Len(t, q.queries, 1)
	assert.NotContains(t, q.queries[0], "LIMIT")
	assert.NotContains(t, q.queries[0], "OFFSET")

	assert.Equal(t, "snowflake:RAW.SALES.ORDERS", table.Source)
	assert.Equal(t, []string{"order_id", "product_id", "customer_id", "order_date", "price", "discount", "quantity", "region"}, table.Columns)
	require.Len(t, table.Records, 4)
	for i, rec := range table.Records {
		assert.Equal(t, i+1, rec.Line)
	}
	assert.Equal(t, []string{"10", "20", "5", "30"}, []string{
		table.Records[0].Price, table.Records[1].Price, table.Records[2].Price, table.Records[3].Price,
	})
	assert.Empty(t, table.Records[2].Region)
}

func TestSnowflakeDuplicatesKeepFirstRow(t *testing.T) {
	src, err := NewSnowflakeSource(ordersQuerier(), "RAW.SALES.ORDERS", "", nil)
	require.NoError(t, err)
	table, err := src.Read(context.Background())
	require.NoError(t, err)

	dc, err := cleaner.NewDataCleaner(zaptest.NewLogger(t))
	require.NoError(t, err)
	res, err := dc.Clean(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Report.DuplicateRows)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 10.0, res.Records[0].Price)
	assert.Equal(t, "North", res.Records[0].Region.String)
	assert.Equal(t, "2", res.Records[1].OrderID)
}
