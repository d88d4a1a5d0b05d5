// pkg/model/record.go
package model

import (
	"database/sql"
	"strconv"
	"time"
)

// Column names of an uploaded transactions file
const (
	ColOrderID       = "order_id"
	ColProductID     = "product_id"
	ColCustomerID    = "customer_id"
	ColCategory      = "category"
	ColRegion        = "region"
	ColPaymentMethod = "payment_method"
	ColOrderDate     = "order_date"
	ColTime          = "time"
	ColPrice         = "price"
	ColDiscount      = "discount"
	ColQuantity      = "quantity"
)

// RequiredColumns must be present in every uploaded file
var RequiredColumns = []string{
	ColOrderID,
	ColProductID,
	ColCustomerID,
	ColOrderDate,
	ColPrice,
	ColDiscount,
	ColQuantity,
}

// OptionalColumns may be absent; their values are then treated as null
var OptionalColumns = []string{
	ColCategory,
	ColRegion,
	ColPaymentMethod,
	ColTime,
}

// RawRecord is one order line item as read from the source, untyped
type RawRecord struct {
	Line          int // 1-based data row number, header excluded
	OrderID       string
	ProductID     string
	CustomerID    string
	Category      string
	Region        string
	PaymentMethod string
	OrderDate     string
	Time          string
	Price         string
	Discount      string
	Quantity      string
}

// Set assigns a raw value by column name. Unknown columns are ignored.
func (r *RawRecord) Set(column, value string) {
	switch column {
	case ColOrderID:
		r.OrderID = value
	case ColProductID:
		r.ProductID = value
	case ColCustomerID:
		r.CustomerID = value
	case ColCategory:
		r.Category = value
	case ColRegion:
		r.Region = value
	case ColPaymentMethod:
		r.PaymentMethod = value
	case ColOrderDate:
		r.OrderDate = value
	case ColTime:
		r.Time = value
	case ColPrice:
		r.Price = value
	case ColDiscount:
		r.Discount = value
	case ColQuantity:
		r.Quantity = value
	}
}

// RawTable is an ordered set of raw records plus the header it was read with
type RawTable struct {
	Source  string
	Columns []string
	Records []RawRecord
}

// HasColumn reports whether the header contains the column
func (t RawTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Calendar holds the fields derived from an order's datetime.
// When Valid is false every other field is unset.
type Calendar struct {
	Valid         bool
	OrderDatetime time.Time
	Day           string // YYYY-MM-DD
	ISOYear       int
	Week          int    // ISO 8601 week number
	Month         string // YYYY-MM
	Hour          int
	DayOfWeek     string
}

// CleanRecord is an order line item that passed every cleaning stage
type CleanRecord struct {
	Line            int
	OrderID         string
	ProductID       string
	CustomerID      string
	Category        sql.NullString
	Region          sql.NullString
	PaymentMethod   sql.NullString
	OrderDate       sql.NullTime   // as parsed from order_date, clock included if given
	Time            sql.NullString // normalised to 15:04:05
	Price           float64
	Discount        float64
	Quantity        float64
	QuantityImputed bool
	Revenue         float64
	Calendar        Calendar
	IsWeekend       bool
}

// Key returns the identity triple used for de-duplication
func (r CleanRecord) Key() RecordKey {
	return RecordKey{OrderID: r.OrderID, ProductID: r.ProductID, CustomerID: r.CustomerID}
}

// Raw converts the record back into raw form so it can be fed to the
// pipeline again. Derived fields are dropped; they are recomputed.
func (r CleanRecord) Raw() RawRecord {
	raw := RawRecord{
		Line:          r.Line,
		OrderID:       r.OrderID,
		ProductID:     r.ProductID,
		CustomerID:    r.CustomerID,
		Category:      r.Category.String,
		Region:        r.Region.String,
		PaymentMethod: r.PaymentMethod.String,
		Time:          r.Time.String,
		Price:         formatFloat(r.Price),
		Discount:      formatFloat(r.Discount),
		Quantity:      formatFloat(r.Quantity),
	}
	if r.OrderDate.Valid {
		raw.OrderDate = r.OrderDate.Time.Format(time.RFC3339Nano)
	}
	return raw
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RecordKey identifies an order line item
type RecordKey struct {
	OrderID    string
	ProductID  string
	CustomerID string
}

// String returns the key as order/product/customer
func (k RecordKey) String() string {
	return k.OrderID + "/" + k.ProductID + "/" + k.CustomerID
}
