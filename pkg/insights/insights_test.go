package insights

import (
	"database/sql"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/ecom-eda/pkg/cleaner"
	"github.com/David-Botos/ecom-eda/pkg/model"
	"github.com/David-Botos/ecom-eda/pkg/session"
)

func line(order, product, customer, category, region, payment string, price, discount, qty float64, at string) model.CleanRecord {
	r := model.CleanRecord{
		OrderID:    order,
		ProductID:  product,
		CustomerID: customer,
		Price:      price,
		Discount:   discount,
		Quantity:   qty,
		Revenue:    cleaner.Revenue(qty, price, discount),
	}
	if category != "" {
		r.Category = sql.NullString{String: category, Valid: true}
	}
	if region != "" {
		r.Region = sql.NullString{String: region, Valid: true}
	}
	if payment != "" {
		r.PaymentMethod = sql.NullString{String: payment, Valid: true}
	}
	if at != "" {
		t, err := time.Parse("2006-01-02 15:04", at)
		if err != nil {
			panic(err)
		}
		r.OrderDate = sql.NullTime{Time: t, Valid: true}
		r.Calendar = cleaner.DeriveCalendar(t)
		r.IsWeekend = cleaner.IsWeekend(r.Calendar.DayOfWeek)
	}
	return r
}

func fixture() *session.Dataset {
	return session.NewDataset(&cleaner.Result{
		Report: model.Report{RunID: "run-1"},
		Records: []model.CleanRecord{
			line("O1", "P1", "C1", "A", "North", "card", 10, 0, 2, "2024-03-15 10:00"),
			line("O1", "P2", "C1", "B", "North", "card", 5, 1, 1, "2024-03-15 10:00"),
			line("O2", "P1", "C2", "A", "South", "cash", 10, 2, 1, "2024-03-16 14:00"),
			line("O3", "P3", "C1", "", "South", "", 20, 5, 1, ""),
			line("O4", "P1", "C3", "B", "North", "card", 10, 1, 3, "2024-04-01 09:00"),
		},
	})
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(fixture())
	require.NoError(t, err)

	assert.Equal(t, "run-1", s.RunID)
	assert.InDelta(t, 74, s.KPIs.TotalRevenue, 1e-9)
	assert.Equal(t, 4, s.KPIs.Orders)
	assert.Equal(t, 3, s.KPIs.Customers)
	assert.Equal(t, 5, s.KPIs.Lines)
	assert.InDelta(t, 14.8, s.KPIs.MeanRevenuePerLine, 1e-9)

	assert.Equal(t, CustomerMix{New: 2, Repeat: 1}, s.Customers)

	assert.Equal(t, []Pair{
		{Key: "2024-03-15", Value: 24},
		{Key: "2024-03-16", Value: 8},
		{Key: "2024-04-01", Value: 27},
	}, s.DailyRevenue)
	assert.Equal(t, []Pair{{Key: "2024-03", Value: 32}, {Key: "2024-04", Value: 27}}, s.MonthlyRevenue)

	assert.Equal(t, []Pair{{Key: "P1", Value: 55}, {Key: "P3", Value: 15}, {Key: "P2", Value: 4}}, s.TopProducts)
	assert.Equal(t, []Pair{{Key: "C1", Value: 39}, {Key: "C3", Value: 27}, {Key: "C2", Value: 8}}, s.TopCustomers)

	require.Len(t, s.CategoryShare, 2)
	assert.Equal(t, "B", s.CategoryShare[0].Key)
	assert.InDelta(t, 31.0/59*100, s.CategoryShare[0].Value, 1e-9)
	assert.InDelta(t, 28.0/59*100, s.CategoryShare[1].Value, 1e-9)

	assert.Equal(t, []Pair{{Key: "North", Value: 51}, {Key: "South", Value: 23}}, s.RegionRevenue)
	assert.Equal(t, []Pair{{Key: "card", Value: 3}, {Key: "cash", Value: 1}}, s.PaymentMethods)

	assert.Equal(t, []Pair{
		{Key: "Monday", Value: 1},
		{Key: "Friday", Value: 2},
		{Key: "Saturday", Value: 1},
	}, s.DayOfWeekLines)
	assert.Equal(t, []Pair{
		{Key: "9", Value: 27},
		{Key: "10", Value: 24},
		{Key: "14", Value: 8},
	}, s.HourlyRevenue)

	// the record without a datetime is left out of both
	assert.InDelta(t, 8, s.WeekendRevenue, 1e-9)
	assert.InDelta(t, 51, s.WeekdayRevenue, 1e-9)

	lines := 0
	for _, b := range s.DiscountBuckets {
		lines += b.Lines
	}
	assert.Equal(t, 5, lines)

	r, ok := s.Correlation.At("price", "price")
	require.True(t, ok)
	assert.Equal(t, 1.0, r)
	pq, _ := s.Correlation.At("price", "quantity")
	qp, _ := s.Correlation.At("quantity", "price")
	assert.Equal(t, pq, qp)
}

func TestSummarizeEmpty(t *testing.T) {
	s, err := Summarize(session.NewDataset(&cleaner.Result{}))
	require.NoError(t, err)
	assert.Equal(t, KPIs{}, s.KPIs)
	assert.Empty(t, s.DailyRevenue)
	assert.Empty(t, s.TopProducts)
	assert.Empty(t, s.DiscountBuckets)

	_, err = json.Marshal(s)
	assert.NoError(t, err)
}

func TestSummarizeNilDataset(t *testing.T) {
	_, err := Summarize(nil)
	assert.Error(t, err)
}

func TestSumByKeepsIdentifiers(t *testing.T) {
	pairs, err := sumBy([]string{"007", "7", "007", "x"}, []float64{1, 2, 3, 4.5})
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Key: "007", Value: 4}, {Key: "7", Value: 2}, {Key: "x", Value: 4.5}}, pairs)

	_, err = sumBy([]string{"a"}, nil)
	assert.Error(t, err)
}

func TestTopLimitsAndBreaksTies(t *testing.T) {
	var pairs []Pair
	for i := 0; i < 15; i++ {
		pairs = append(pairs, Pair{Key: string(rune('a' + i)), Value: 1})
	}
	got := top(pairs, 10)
	require.Len(t, got, 10)
	assert.Equal(t, "a", got[0].Key)
	assert.Equal(t, "j", got[9].Key)
}

func TestDiscountBuckets(t *testing.T) {
	buckets := discountBuckets([]float64{0, 1, 2, 5, 1}, []float64{20, 4, 8, 15, 27}, 5)
	require.Len(t, buckets, 5)

	lines := []int{}
	for _, b := range buckets {
		lines = append(lines, b.Lines)
	}
	assert.Equal(t, []int{1, 2, 0, 1, 1}, lines)
	assert.InDelta(t, 0.8, buckets[0].Upper, 1e-12)
	assert.InDelta(t, 31, buckets[1].Revenue, 1e-9)
	assert.InDelta(t, 15.5, buckets[1].MedianRevenue, 1e-9)
	assert.Equal(t, 5.0, buckets[4].Upper)

	// ties collapse to a single interval
	same := discountBuckets([]float64{1, 1, 1}, []float64{1, 2, 3}, 5)
	require.Len(t, same, 1)
	assert.Equal(t, 3, same[0].Lines)
}

func TestCorrelationMatrix(t *testing.T) {
	m := correlationMatrix(
		[]string{"x", "y", "z"},
		[][]float64{{1, 2, 3}, {2, 4, 6}, {1, 1, 1}},
	)

	xy, _ := m.At("x", "y")
	assert.InDelta(t, 1, xy, 1e-12)
	xz, _ := m.At("x", "z")
	assert.True(t, math.IsNaN(xz))
	_, ok := m.At("x", "missing")
	assert.False(t, ok)

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(b), "null")
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.0, quantile(0, sorted))
	assert.Equal(t, 4.0, quantile(1, sorted))
	assert.InDelta(t, 2.5, quantile(0.5, sorted), 1e-12)
	assert.Equal(t, 7.0, quantile(0.3, []float64{7}))
}
