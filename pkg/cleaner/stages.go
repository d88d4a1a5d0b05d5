// pkg/cleaner/stages.go
package cleaner

import (
	"database/sql"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/David-Botos/ecom-eda/pkg/converter"
	"github.com/David-Botos/ecom-eda/pkg/model"
)

// row is a raw record after type coercion. Every field is a tagged value
// so later stages never parse text again.
type row struct {
	line int
	key  string

	orderID    model.Value[string]
	productID  model.Value[string]
	customerID model.Value[string]

	category      model.Value[string]
	region        model.Value[string]
	paymentMethod model.Value[string]

	orderDate model.Value[converter.ParsedDate]
	clock     model.Value[time.Duration]

	price    model.Value[float64]
	discount model.Value[float64]
	quantity model.Value[float64]
	imputed  bool
}

// run carries the bookkeeping of a single Clean call
type run struct {
	conv   *converter.TypeConverter
	report *model.Report
	ops    []model.CleaningOperation
	at     time.Time
}

func newRun(runID, source string, at time.Time, conv *converter.TypeConverter) *run {
	return &run{
		conv: conv,
		at:   at,
		report: &model.Report{
			RunID:         runID,
			Source:        source,
			StartedAt:     at,
			ParseWarnings: make(map[string]int),
		},
	}
}

// coerce parses every typed field. Malformed values become nulls and are
// counted; no row is dropped here.
func (r *run) coerce(records []model.RawRecord) []row {
	r.report.InputRows = len(records)
	rows := make([]row, 0, len(records))

	for i := range records {
		raw := &records[i]
		line := raw.Line
		if line == 0 {
			line = i + 1
		}

		cr := row{
			line:          line,
			key:           rowIdentifier(raw),
			orderID:       r.conv.Text(raw.OrderID),
			productID:     r.conv.Text(raw.ProductID),
			customerID:    r.conv.Text(raw.CustomerID),
			category:      r.conv.Text(raw.Category),
			region:        r.conv.Text(raw.Region),
			paymentMethod: r.conv.Text(raw.PaymentMethod),
			orderDate:     r.conv.Date(raw.OrderDate),
			clock:         r.conv.Clock(raw.Time),
			price:         r.conv.Number(raw.Price),
			discount:      r.conv.Number(raw.Discount),
			quantity:      r.conv.Number(raw.Quantity),
		}

		r.checkParsed(&cr, model.ColOrderDate, cr.orderDate.State, cr.orderDate.Raw)
		r.checkParsed(&cr, model.ColTime, cr.clock.State, cr.clock.Raw)
		r.checkParsed(&cr, model.ColPrice, cr.price.State, cr.price.Raw)
		r.checkParsed(&cr, model.ColDiscount, cr.discount.State, cr.discount.Raw)
		r.checkParsed(&cr, model.ColQuantity, cr.quantity.State, cr.quantity.Raw)

		rows = append(rows, cr)
	}

	return rows
}

func (r *run) checkParsed(cr *row, column string, state model.State, raw string) {
	if state != model.Malformed {
		return
	}
	r.report.ParseWarnings[column]++
	original := raw
	r.ops = append(r.ops, model.CleaningOperation{
		RunID:         r.report.RunID,
		Category:      model.ParseWarning,
		Line:          cr.line,
		RowIdentifier: cr.key,
		ColumnName:    column,
		OriginalValue: &original,
		Operation:     model.OpCoercionFailed,
		Reason:        "cannot_parse_" + column,
		CleanedAt:     r.at,
	})
}

// quantityMedian is computed once over every coerced quantity, before any
// row is filtered out
func (r *run) quantityMedian(rows []row) (float64, bool) {
	values := make([]float64, 0, len(rows))
	for i := range rows {
		if q, ok := rows[i].quantity.Get(); ok {
			values = append(values, q)
		}
	}
	return median(values)
}

// median returns the middle value, averaging the two middle values for
// even counts
func median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}

// dropNullKeys removes rows missing any identifier
func (r *run) dropNullKeys(rows []row) []row {
	kept := rows[:0:0]
	for i := range rows {
		cr := &rows[i]
		if cr.orderID.Valid() && cr.productID.Valid() && cr.customerID.Valid() {
			kept = append(kept, *cr)
			continue
		}
		r.report.NullKeyRows++
		r.dropped(cr, model.ReasonNullKey)
	}
	return kept
}

// imputeQuantity fills missing or malformed quantities with the median
func (r *run) imputeQuantity(rows []row, median float64, ok bool) []row {
	r.report.QuantityMedian = median
	r.report.HasMedian = ok
	if !ok {
		return rows
	}

	newValue := strconv.FormatFloat(median, 'f', -1, 64)
	for i := range rows {
		cr := &rows[i]
		if cr.quantity.Valid() {
			continue
		}
		var original *string
		if cr.quantity.State == model.Malformed {
			raw := cr.quantity.Raw
			original = &raw
		}
		cr.quantity = model.Of(median, cr.quantity.Raw)
		cr.imputed = true
		r.report.ImputedQuantities++
		r.ops = append(r.ops, model.CleaningOperation{
			RunID:         r.report.RunID,
			Category:      model.WarningNone,
			Line:          cr.line,
			RowIdentifier: cr.key,
			ColumnName:    model.ColQuantity,
			OriginalValue: original,
			NewValue:      &newValue,
			Operation:     model.OpQuantityImputed,
			Reason:        "median_of_original_quantities",
			CleanedAt:     r.at,
		})
	}
	return rows
}

// dedupe keeps the first row of every (order, product, customer) triple
func (r *run) dedupe(rows []row) []row {
	seen := make(map[model.RecordKey]struct{}, len(rows))
	kept := rows[:0:0]
	for i := range rows {
		cr := &rows[i]
		key := model.RecordKey{
			OrderID:    cr.orderID.V,
			ProductID:  cr.productID.V,
			CustomerID: cr.customerID.V,
		}
		if _, dup := seen[key]; dup {
			r.report.DuplicateRows++
			r.dropped(cr, model.ReasonDuplicate)
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, *cr)
	}
	return kept
}

// filterValid drops rows with a non-positive price or quantity, or a
// discount that is null or larger than the price
func (r *run) filterValid(rows []row) []row {
	kept := rows[:0:0]
	for i := range rows {
		cr := &rows[i]
		price, priceOK := cr.price.Get()
		quantity, quantityOK := cr.quantity.Get()
		discount, discountOK := cr.discount.Get()

		switch {
		case !priceOK || price <= 0:
			r.report.InvalidPriceQuantityRows++
			r.dropped(cr, model.ReasonInvalidPrice)
		case !quantityOK || quantity <= 0:
			r.report.InvalidPriceQuantityRows++
			r.dropped(cr, model.ReasonInvalidQuantity)
		case !discountOK || discount > price:
			r.report.InvalidDiscountRows++
			r.dropped(cr, model.ReasonInvalidDiscount)
		default:
			kept = append(kept, *cr)
		}
	}
	return kept
}

func (r *run) dropped(cr *row, reason string) {
	r.ops = append(r.ops, model.CleaningOperation{
		RunID:         r.report.RunID,
		Category:      model.FilteredRowWarning,
		Line:          cr.line,
		RowIdentifier: cr.key,
		Operation:     model.OpRowDropped,
		Reason:        reason,
		CleanedAt:     r.at,
	})
}

// build composes the order datetime and derives every feature
func (r *run) build(cr *row) model.CleanRecord {
	rec := model.CleanRecord{
		Line:            cr.line,
		OrderID:         cr.orderID.V,
		ProductID:       cr.productID.V,
		CustomerID:      cr.customerID.V,
		Category:        nullString(cr.category),
		Region:          nullString(cr.region),
		PaymentMethod:   nullString(cr.paymentMethod),
		Price:           cr.price.V,
		Discount:        cr.discount.V,
		Quantity:        cr.quantity.V,
		QuantityImputed: cr.imputed,
	}

	if d, ok := cr.orderDate.Get(); ok {
		rec.OrderDate = sql.NullTime{Time: d.Time, Valid: true}
	}
	if c, ok := cr.clock.Get(); ok {
		rec.Time = sql.NullString{String: converter.FormatClock(c), Valid: true}
	}

	rec.Revenue = Revenue(rec.Quantity, rec.Price, rec.Discount)

	if dt, ok := composeDatetime(cr.orderDate, cr.clock); ok {
		rec.Calendar = DeriveCalendar(dt)
		rec.IsWeekend = IsWeekend(rec.Calendar.DayOfWeek)
	} else {
		r.report.MissingDatetimes++
	}

	return rec
}

// composeDatetime combines order date and time of day. A missing time of
// day means midnight, or the clock order_date itself carried.
func composeDatetime(date model.Value[converter.ParsedDate], clock model.Value[time.Duration]) (time.Time, bool) {
	d, ok := date.Get()
	if !ok {
		return time.Time{}, false
	}
	c, ok := clock.Get()
	if !ok {
		return d.Time, true
	}
	y, m, day := d.Time.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Time.Location()).Add(c), true
}

// Revenue is quantity * (price - discount), unrounded
func Revenue(quantity, price, discount float64) float64 {
	return quantity * (price - discount)
}

// DeriveCalendar computes the time-derived features of an order datetime
func DeriveCalendar(t time.Time) model.Calendar {
	year, week := t.ISOWeek()
	return model.Calendar{
		Valid:         true,
		OrderDatetime: t,
		Day:           t.Format("2006-01-02"),
		ISOYear:       year,
		Week:          week,
		Month:         t.Format("2006-01"),
		Hour:          t.Hour(),
		DayOfWeek:     t.Weekday().String(),
	}
}

// IsWeekend reports whether a weekday name falls on the weekend
func IsWeekend(dayOfWeek string) bool {
	return dayOfWeek == time.Saturday.String() || dayOfWeek == time.Sunday.String()
}

func nullString(v model.Value[string]) sql.NullString {
	if s, ok := v.Get(); ok {
		return sql.NullString{String: s, Valid: true}
	}
	return sql.NullString{}
}

func rowIdentifier(raw *model.RawRecord) string {
	return strings.TrimSpace(raw.OrderID) + "/" +
		strings.TrimSpace(raw.ProductID) + "/" +
		strings.TrimSpace(raw.CustomerID)
}
