// pkg/insights/insights.go
package insights

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/David-Botos/ecom-eda/pkg/model"
	"github.com/David-Botos/ecom-eda/pkg/session"
)

const (
	topN              = 10
	discountQuantiles = 5
)

// KPIs are the headline figures of a dataset
type KPIs struct {
	TotalRevenue       float64 `json:"total_revenue"`
	Orders             int     `json:"orders"`
	Customers          int     `json:"customers"`
	Lines              int     `json:"lines"`
	MeanRevenuePerLine float64 `json:"mean_revenue_per_line"`
}

// CustomerMix splits customers by the number of distinct orders they placed
type CustomerMix struct {
	New    int `json:"new"`
	Repeat int `json:"repeat"`
}

// Summary holds every aggregate the dashboard displays. Time-based series
// skip records without an order datetime; everything else uses all records.
type Summary struct {
	RunID string `json:"run_id"`
	KPIs  KPIs   `json:"kpis"`

	DailyRevenue   []Pair `json:"daily_revenue"`
	MonthlyRevenue []Pair `json:"monthly_revenue"`

	TopProducts   []Pair `json:"top_products"`
	CategoryShare []Pair `json:"category_share_pct"`

	Customers    CustomerMix `json:"customers"`
	TopCustomers []Pair      `json:"top_customers"`

	RegionRevenue  []Pair `json:"region_revenue"`
	PaymentMethods []Pair `json:"payment_methods"`

	DayOfWeekLines []Pair  `json:"dayofweek_lines"`
	HourlyRevenue  []Pair  `json:"hourly_revenue"`
	WeekendRevenue float64 `json:"weekend_revenue"`
	WeekdayRevenue float64 `json:"weekday_revenue"`

	DiscountBuckets []DiscountBucket  `json:"discount_buckets"`
	Correlation     CorrelationMatrix `json:"correlation"`
}

// columns gathers per-record vectors once
type columns struct {
	price, discount, quantity, revenue []float64

	products, customers []string

	categories  []string
	categoryRev []float64
	regions     []string
	regionRev   []float64
	payments    []string

	// only records with an order datetime
	days, months []string
	timedRev     []float64
	weekdays     []string
	hours        []string
}

func collect(ds *session.Dataset) *columns {
	c := &columns{}
	ds.Each(func(r model.CleanRecord) bool {
		c.price = append(c.price, r.Price)
		c.discount = append(c.discount, r.Discount)
		c.quantity = append(c.quantity, r.Quantity)
		c.revenue = append(c.revenue, r.Revenue)

		c.products = append(c.products, r.ProductID)
		c.customers = append(c.customers, r.CustomerID)

		if r.Category.Valid {
			c.categories = append(c.categories, r.Category.String)
			c.categoryRev = append(c.categoryRev, r.Revenue)
		}
		if r.Region.Valid {
			c.regions = append(c.regions, r.Region.String)
			c.regionRev = append(c.regionRev, r.Revenue)
		}
		if r.PaymentMethod.Valid {
			c.payments = append(c.payments, r.PaymentMethod.String)
		}

		if r.Calendar.Valid {
			c.days = append(c.days, r.Calendar.Day)
			c.months = append(c.months, r.Calendar.Month)
			c.timedRev = append(c.timedRev, r.Revenue)
			c.weekdays = append(c.weekdays, r.Calendar.DayOfWeek)
			c.hours = append(c.hours, strconv.Itoa(r.Calendar.Hour))
		}
		return true
	})
	return c
}

// Summarize computes the dashboard aggregates of a dataset
func Summarize(ds *session.Dataset) (*Summary, error) {
	if ds == nil {
		return nil, errors.New("no dataset loaded")
	}

	c := collect(ds)
	s := &Summary{RunID: ds.RunID()}
	s.KPIs = kpis(ds, c)
	s.Customers = customerMix(ds)

	var err error
	if s.DailyRevenue, err = sumBy(c.days, c.timedRev); err != nil {
		return nil, fmt.Errorf("daily revenue: %w", err)
	}
	sortByKey(s.DailyRevenue)

	if s.MonthlyRevenue, err = sumBy(c.months, c.timedRev); err != nil {
		return nil, fmt.Errorf("monthly revenue: %w", err)
	}
	sortByKey(s.MonthlyRevenue)

	products, err := sumBy(c.products, c.revenue)
	if err != nil {
		return nil, fmt.Errorf("product revenue: %w", err)
	}
	s.TopProducts = top(products, topN)

	customers, err := sumBy(c.customers, c.revenue)
	if err != nil {
		return nil, fmt.Errorf("customer revenue: %w", err)
	}
	s.TopCustomers = top(customers, topN)

	categories, err := sumBy(c.categories, c.categoryRev)
	if err != nil {
		return nil, fmt.Errorf("category revenue: %w", err)
	}
	s.CategoryShare = shares(categories)

	if s.RegionRevenue, err = sumBy(c.regions, c.regionRev); err != nil {
		return nil, fmt.Errorf("region revenue: %w", err)
	}
	sortByKey(s.RegionRevenue)

	if s.PaymentMethods, err = countBy(c.payments); err != nil {
		return nil, fmt.Errorf("payment methods: %w", err)
	}
	sortByValueDesc(s.PaymentMethods)

	weekdays, err := countBy(c.weekdays)
	if err != nil {
		return nil, fmt.Errorf("day of week: %w", err)
	}
	s.DayOfWeekLines = weekOrder(weekdays)

	if s.HourlyRevenue, err = sumBy(c.hours, c.timedRev); err != nil {
		return nil, fmt.Errorf("hourly revenue: %w", err)
	}
	sortNumeric(s.HourlyRevenue)

	ds.Each(func(r model.CleanRecord) bool {
		if !r.Calendar.Valid {
			return true
		}
		if r.IsWeekend {
			s.WeekendRevenue += r.Revenue
		} else {
			s.WeekdayRevenue += r.Revenue
		}
		return true
	})

	s.DiscountBuckets = discountBuckets(c.discount, c.revenue, discountQuantiles)
	s.Correlation = correlationMatrix(
		[]string{model.ColPrice, model.ColDiscount, model.ColQuantity, "revenue"},
		[][]float64{c.price, c.discount, c.quantity, c.revenue},
	)

	return s, nil
}

func kpis(ds *session.Dataset, c *columns) KPIs {
	k := KPIs{Lines: ds.Len()}
	if k.Lines == 0 {
		return k
	}
	k.TotalRevenue = floats.Sum(c.revenue)
	k.MeanRevenuePerLine = stat.Mean(c.revenue, nil)

	orders := make(map[string]struct{})
	customers := make(map[string]struct{})
	ds.Each(func(r model.CleanRecord) bool {
		orders[r.OrderID] = struct{}{}
		customers[r.CustomerID] = struct{}{}
		return true
	})
	k.Orders = len(orders)
	k.Customers = len(customers)
	return k
}

func customerMix(ds *session.Dataset) CustomerMix {
	orders := make(map[string]map[string]struct{})
	ds.Each(func(r model.CleanRecord) bool {
		set, ok := orders[r.CustomerID]
		if !ok {
			set = make(map[string]struct{})
			orders[r.CustomerID] = set
		}
		set[r.OrderID] = struct{}{}
		return true
	})

	var mix CustomerMix
	for _, set := range orders {
		if len(set) > 1 {
			mix.Repeat++
		} else {
			mix.New++
		}
	}
	return mix
}

// shares converts totals to percentages of their sum, largest first
func shares(pairs []Pair) []Pair {
	total := 0.0
	for _, p := range pairs {
		total += p.Value
	}
	if total == 0 {
		return nil
	}
	out := make([]Pair, len(pairs))
	for i, p := range pairs {
		out[i] = Pair{Key: p.Key, Value: p.Value / total * 100}
	}
	sortByValueDesc(out)
	return out
}

// weekOrder orders day-of-week counts Monday first
func weekOrder(pairs []Pair) []Pair {
	byName := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		byName[p.Key] = p.Value
	}
	var out []Pair
	for d := time.Monday; d < time.Monday+7; d++ {
		name := (d % 7).String()
		if v, ok := byName[name]; ok {
			out = append(out, Pair{Key: name, Value: v})
		}
	}
	return out
}

// sortNumeric orders pairs whose keys are integers
func sortNumeric(pairs []Pair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		a, _ := strconv.Atoi(pairs[i].Key)
		b, _ := strconv.Atoi(pairs[j].Key)
		return a < b
	})
}
