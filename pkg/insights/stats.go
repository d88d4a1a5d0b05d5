// pkg/insights/stats.go
package insights

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Coefficient is a correlation value; undefined coefficients (constant
// columns) are NaN and encode as JSON null.
type Coefficient float64

func (c Coefficient) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(c))
}

// CorrelationMatrix is a symmetric Pearson correlation matrix
type CorrelationMatrix struct {
	Columns []string        `json:"columns"`
	Values  [][]Coefficient `json:"values"`
}

// At returns the coefficient between two named columns
func (m CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, false
	}
	return float64(m.Values[i][j]), true
}

func correlationMatrix(names []string, cols [][]float64) CorrelationMatrix {
	m := CorrelationMatrix{Columns: names, Values: make([][]Coefficient, len(cols))}
	for i := range cols {
		m.Values[i] = make([]Coefficient, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			var r float64
			switch {
			case len(cols[i]) < 2 || stat.Variance(cols[i], nil) == 0 || stat.Variance(cols[j], nil) == 0:
				r = math.NaN()
			case i == j:
				r = 1
			default:
				r = stat.Correlation(cols[i], cols[j], nil)
			}
			m.Values[i][j] = Coefficient(r)
			m.Values[j][i] = Coefficient(r)
		}
	}
	return m
}

// quantile interpolates linearly between closest ranks (numpy's default).
// sorted must be ascending and non-empty.
func quantile(p float64, sorted []float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := p * float64(len(sorted)-1)
	lo := math.Floor(h)
	i := int(lo)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// DiscountBucket is one equal-frequency discount interval
type DiscountBucket struct {
	Label         string  `json:"label"`
	Lower         float64 `json:"lower"`
	Upper         float64 `json:"upper"`
	Lines         int     `json:"lines"`
	Revenue       float64 `json:"revenue"`
	MeanRevenue   float64 `json:"mean_revenue"`
	MedianRevenue float64 `json:"median_revenue"`
}

// discountBuckets splits lines into n quantile intervals of discount.
// Duplicate edges are dropped, so fewer buckets come back for discounts
// with many ties. Intervals are right-closed; the first also holds its
// lower edge.
func discountBuckets(discounts, revenues []float64, n int) []DiscountBucket {
	if len(discounts) == 0 || n < 1 {
		return nil
	}

	sorted := append([]float64(nil), discounts...)
	sort.Float64s(sorted)

	var edges []float64
	for k := 0; k <= n; k++ {
		e := quantile(float64(k)/float64(n), sorted)
		if len(edges) == 0 || e != edges[len(edges)-1] {
			edges = append(edges, e)
		}
	}
	if len(edges) == 1 {
		edges = append(edges, edges[0])
	}

	members := make([][]float64, len(edges)-1)
	for i, d := range discounts {
		b := sort.SearchFloat64s(edges[1:], d)
		if b >= len(members) {
			b = len(members) - 1
		}
		members[b] = append(members[b], revenues[i])
	}

	buckets := make([]DiscountBucket, len(members))
	for b, revs := range members {
		open := "("
		if b == 0 {
			open = "["
		}
		bucket := DiscountBucket{
			Label: fmt.Sprintf("%s%g, %g]", open, edges[b], edges[b+1]),
			Lower: edges[b],
			Upper: edges[b+1],
			Lines: len(revs),
		}
		if len(revs) > 0 {
			bucket.Revenue = floats.Sum(revs)
			bucket.MeanRevenue = stat.Mean(revs, nil)
			sort.Float64s(revs)
			bucket.MedianRevenue = quantile(0.5, revs)
		}
		buckets[b] = bucket
	}
	return buckets
}
