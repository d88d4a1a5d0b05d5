package converter

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/ecom-eda/pkg/model"
)

func TestGenerateColumnDefinitions(t *testing.T) {
	c := NewTypeConverter(nil)
	defs := c.GenerateColumnDefinitions()
	names := c.ColumnNames()

	require.Len(t, defs, len(names))
	assert.Equal(t, `"run_id" UUID NOT NULL`, defs[0])
	assert.Contains(t, defs, `"category" TEXT NULL`)
	assert.Contains(t, defs, `"revenue" DOUBLE PRECISION NOT NULL`)
	assert.Contains(t, names, `"dayofweek"`)
}

func TestRowValues(t *testing.T) {
	c := NewTypeConverter(nil)
	names := c.ColumnNames()
	index := func(name string) int {
		for i, n := range names {
			if n == `"`+name+`"` {
				return i
			}
		}
		t.Fatalf("column %s not found", name)
		return -1
	}

	rec := &model.CleanRecord{
		OrderID:  "1",
		Category: sql.NullString{String: "Books", Valid: true},
		Price:    10,
		Revenue:  20,
	}
	values := c.RowValues("run-1", rec)
	require.Len(t, values, len(names))
	assert.Equal(t, "run-1", values[index("run_id")])
	assert.Equal(t, "1", values[index("order_id")])
	assert.Equal(t, 20.0, values[index("revenue")])
	assert.Nil(t, values[index("hour")])
	assert.Nil(t, values[index("dayofweek")])

	rec.Calendar = model.Calendar{Valid: true, Hour: 13, DayOfWeek: "Friday", OrderDatetime: time.Now()}
	values = c.RowValues("run-1", rec)
	assert.Equal(t, 13, values[index("hour")])
	assert.Equal(t, "Friday", values[index("dayofweek")])
}

func TestQualifiedName(t *testing.T) {
	assert.Equal(t, `"public"."cleaned_orders"`, QualifiedName("public", "cleaned_orders"))
	assert.Equal(t, `"orders"`, QualifiedName("", "orders"))
}
