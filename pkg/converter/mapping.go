// pkg/converter/mapping.go
package converter

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/David-Botos/ecom-eda/pkg/model"
)

// Column describes one column of the exported cleaned-orders table
type Column struct {
	Name     string
	PgType   string
	Nullable bool
	value    func(runID string, r *model.CleanRecord) interface{}
}

// cleanedColumns lists the export layout in insertion order
var cleanedColumns = []Column{
	{Name: "run_id", PgType: "UUID", value: func(runID string, _ *model.CleanRecord) interface{} { return runID }},
	{Name: "line", PgType: "INTEGER", value: func(_ string, r *model.CleanRecord) interface{} { return r.Line }},
	{Name: model.ColOrderID, PgType: "TEXT", value: func(_ string, r *model.CleanRecord) interface{} { return r.OrderID }},
	{Name: model.ColProductID, PgType: "TEXT", value: func(_ string, r *model.CleanRecord) interface{} { return r.ProductID }},
	{Name: model.ColCustomerID, PgType: "TEXT", value: func(_ string, r *model.CleanRecord) interface{} { return r.CustomerID }},
	{Name: model.ColCategory, PgType: "TEXT", Nullable: true, value: func(_ string, r *model.CleanRecord) interface{} { return r.Category }},
	{Name: model.ColRegion, PgType: "TEXT", Nullable: true, value: func(_ string, r *model.CleanRecord) interface{} { return r.Region }},
	{Name: model.ColPaymentMethod, PgType: "TEXT", Nullable: true, value: func(_ string, r *model.CleanRecord) interface{} { return r.PaymentMethod }},
	{Name: model.ColOrderDate, PgType: "TIMESTAMP", Nullable: true, value: func(_ string, r *model.CleanRecord) interface{} { return r.OrderDate }},
	{Name: model.ColTime, PgType: "TIME", Nullable: true, value: func(_ string, r *model.CleanRecord) interface{} { return r.Time }},
	{Name: model.ColPrice, PgType: "DOUBLE PRECISION", value: func(_ string, r *model.CleanRecord) interface{} { return r.Price }},
	{Name: model.ColDiscount, PgType: "DOUBLE PRECISION", value: func(_ string, r *model.CleanRecord) interface{} { return r.Discount }},
	{Name: model.ColQuantity, PgType: "DOUBLE PRECISION", value: func(_ string, r *model.CleanRecord) interface{} { return r.Quantity }},
	{Name: "quantity_imputed", PgType: "BOOLEAN", value: func(_ string, r *model.CleanRecord) interface{} { return r.QuantityImputed }},
	{Name: "revenue", PgType: "DOUBLE PRECISION", value: func(_ string, r *model.CleanRecord) interface{} { return r.Revenue }},
	{Name: "order_datetime", PgType: "TIMESTAMP", Nullable: true, value: calendarValue(func(c model.Calendar) interface{} { return c.OrderDatetime })},
	{Name: "day", PgType: "DATE", Nullable: true, value: calendarValue(func(c model.Calendar) interface{} { return c.Day })},
	{Name: "week", PgType: "SMALLINT", Nullable: true, value: calendarValue(func(c model.Calendar) interface{} { return c.Week })},
	{Name: "month", PgType: "VARCHAR(7)", Nullable: true, value: calendarValue(func(c model.Calendar) interface{} { return c.Month })},
	{Name: "hour", PgType: "SMALLINT", Nullable: true, value: calendarValue(func(c model.Calendar) interface{} { return c.Hour })},
	{Name: "dayofweek", PgType: "VARCHAR(9)", Nullable: true, value: calendarValue(func(c model.Calendar) interface{} { return c.DayOfWeek })},
	{Name: "is_weekend", PgType: "BOOLEAN", value: func(_ string, r *model.CleanRecord) interface{} { return r.IsWeekend }},
}

// calendarValue yields NULL for records without an order datetime
func calendarValue(get func(model.Calendar) interface{}) func(string, *model.CleanRecord) interface{} {
	return func(_ string, r *model.CleanRecord) interface{} {
		if !r.Calendar.Valid {
			return nil
		}
		return get(r.Calendar)
	}
}

// CleanedColumns returns the export column layout
func (c *TypeConverter) CleanedColumns() []Column {
	return append([]Column(nil), cleanedColumns...)
}

// ColumnNames returns the quoted column names in insertion order
func (c *TypeConverter) ColumnNames() []string {
	names := make([]string, len(cleanedColumns))
	for i, col := range cleanedColumns {
		names[i] = pq.QuoteIdentifier(col.Name)
	}
	return names
}

// GenerateColumnDefinitions creates PostgreSQL column definitions
func (c *TypeConverter) GenerateColumnDefinitions() []string {
	definitions := make([]string, 0, len(cleanedColumns))

	for _, col := range cleanedColumns {
		nullability := "NOT NULL"
		if col.Nullable {
			nullability = "NULL"
		}

		definitions = append(definitions, fmt.Sprintf("%s %s %s",
			pq.QuoteIdentifier(col.Name),
			col.PgType,
			nullability))
	}

	return definitions
}

// RowValues converts a cleaned record into insert arguments matching ColumnNames
func (c *TypeConverter) RowValues(runID string, r *model.CleanRecord) []interface{} {
	values := make([]interface{}, len(cleanedColumns))
	for i, col := range cleanedColumns {
		values[i] = col.value(runID, r)
	}
	return values
}

// QualifiedName quotes a schema-qualified table name
func QualifiedName(schema, table string) string {
	if strings.TrimSpace(schema) == "" {
		return pq.QuoteIdentifier(table)
	}
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}
