// pkg/cleaner/metrics.go
package cleaner

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/David-Botos/ecom-eda/pkg/model"
)

// Drop stages used as the "stage" label
const (
	StageNullKey         = "null_key"
	StageDuplicate       = "duplicate"
	StageInvalidPriceQty = "invalid_price_quantity"
	StageInvalidDiscount = "invalid_discount"
)

// Metrics tracks pipeline runs in Prometheus and keeps running totals
// for log summaries
type Metrics struct {
	mu     sync.Mutex
	logger *zap.Logger

	runs          prometheus.Counter
	rowsIn        prometheus.Counter
	rowsOut       prometheus.Counter
	rowsDropped   *prometheus.CounterVec
	imputed       prometheus.Counter
	parseWarnings *prometheus.CounterVec
	duration      prometheus.Histogram

	TotalRuns    int
	TotalRowsIn  int64
	TotalRowsOut int64
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer, logger *zap.Logger) (*Metrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Metrics{
		logger: logger,
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecom_clean_runs_total",
			Help: "Number of completed cleaning runs.",
		}),
		rowsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecom_clean_rows_in_total",
			Help: "Raw rows received by the cleaning pipeline.",
		}),
		rowsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecom_clean_rows_out_total",
			Help: "Rows that survived every cleaning stage.",
		}),
		rowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecom_clean_rows_dropped_total",
			Help: "Rows dropped, by filter stage.",
		}, []string{"stage"}),
		imputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecom_clean_quantities_imputed_total",
			Help: "Missing quantities replaced by the median.",
		}),
		parseWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecom_clean_parse_warnings_total",
			Help: "Field values that failed type coercion, by column.",
		}, []string{"column"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecom_clean_duration_seconds",
			Help:    "Wall time of a cleaning run.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	if reg != nil {
		var err error
		if m.runs, err = register(reg, m.runs); err != nil {
			return nil, err
		}
		if m.rowsIn, err = register(reg, m.rowsIn); err != nil {
			return nil, err
		}
		if m.rowsOut, err = register(reg, m.rowsOut); err != nil {
			return nil, err
		}
		if m.rowsDropped, err = register(reg, m.rowsDropped); err != nil {
			return nil, err
		}
		if m.imputed, err = register(reg, m.imputed); err != nil {
			return nil, err
		}
		if m.parseWarnings, err = register(reg, m.parseWarnings); err != nil {
			return nil, err
		}
		if m.duration, err = register(reg, m.duration); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// register adds c to reg, returning the collector already registered
// under the same name if there is one
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Observe records a finished run
func (m *Metrics) Observe(report *model.Report) {
	m.runs.Inc()
	m.rowsIn.Add(float64(report.InputRows))
	m.rowsOut.Add(float64(report.OutputRows))
	m.rowsDropped.WithLabelValues(StageNullKey).Add(float64(report.NullKeyRows))
	m.rowsDropped.WithLabelValues(StageDuplicate).Add(float64(report.DuplicateRows))
	m.rowsDropped.WithLabelValues(StageInvalidPriceQty).Add(float64(report.InvalidPriceQuantityRows))
	m.rowsDropped.WithLabelValues(StageInvalidDiscount).Add(float64(report.InvalidDiscountRows))
	m.imputed.Add(float64(report.ImputedQuantities))
	for column, n := range report.ParseWarnings {
		m.parseWarnings.WithLabelValues(column).Add(float64(n))
	}
	m.duration.Observe(report.Duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalRuns++
	m.TotalRowsIn += int64(report.InputRows)
	m.TotalRowsOut += int64(report.OutputRows)
}

// LogSummary logs the running totals
func (m *Metrics) LogSummary() {
	m.mu.Lock()
	defer m.mu.Unlock()

	retention := 0.0
	if m.TotalRowsIn > 0 {
		retention = float64(m.TotalRowsOut) / float64(m.TotalRowsIn) * 100
	}

	m.logger.Info("Cleaning summary",
		zap.Int("runs", m.TotalRuns),
		zap.Int64("rows_in", m.TotalRowsIn),
		zap.Int64("rows_out", m.TotalRowsOut),
		zap.Float64("retention_pct", retention))
}
