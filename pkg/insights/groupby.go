// pkg/insights/groupby.go
package insights

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const (
	keyColumn   = "key"
	valueColumn = "value"
)

// Pair is one labelled value of a series
type Pair struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// sumBy sums values per key with a dataframe group-by. Keys are replaced by
// dense integer codes first so the frame's type detection cannot rewrite
// identifiers such as "007". The result is in first-seen key order.
func sumBy(keys []string, values []float64) ([]Pair, error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("group-by: %d keys for %d values", len(keys), len(values))
	}
	if len(keys) == 0 {
		return nil, nil
	}

	codes := make(map[string]int)
	var names []string
	ids := make([]int, len(keys))
	for i, k := range keys {
		id, ok := codes[k]
		if !ok {
			id = len(names)
			codes[k] = id
			names = append(names, k)
		}
		ids[i] = id
	}

	df := dataframe.New(
		series.New(ids, series.Int, keyColumn),
		series.New(values, series.Float, valueColumn),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("group-by: %w", df.Err)
	}

	grouped := df.GroupBy(keyColumn).
		Aggregation([]dataframe.AggregationType{dataframe.Aggregation_SUM}, []string{valueColumn})
	if grouped.Err != nil {
		return nil, fmt.Errorf("group-by: %w", grouped.Err)
	}

	var sums []float64
	for _, name := range grouped.Names() {
		if name != keyColumn {
			sums = grouped.Col(name).Float()
			break
		}
	}
	groupIDs := grouped.Col(keyColumn).Records()
	if len(sums) != len(groupIDs) {
		return nil, fmt.Errorf("group-by: aggregated column missing")
	}

	pairs := make([]Pair, len(names))
	for i, raw := range groupIDs {
		code, err := strconv.ParseFloat(raw, 64)
		id := int(code)
		if err != nil || id < 0 || id >= len(names) {
			return nil, fmt.Errorf("group-by: unexpected group key %q", raw)
		}
		pairs[id] = Pair{Key: names[id], Value: sums[i]}
	}
	return pairs, nil
}

// countBy counts occurrences of each key
func countBy(keys []string) ([]Pair, error) {
	ones := make([]float64, len(keys))
	for i := range ones {
		ones[i] = 1
	}
	return sumBy(keys, ones)
}

func sortByKey(pairs []Pair) {
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
}

// sortByValueDesc orders largest first; equal values keep key order
func sortByValueDesc(pairs []Pair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Value != pairs[j].Value {
			return pairs[i].Value > pairs[j].Value
		}
		return pairs[i].Key < pairs[j].Key
	})
}

func top(pairs []Pair, n int) []Pair {
	sortByValueDesc(pairs)
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}
