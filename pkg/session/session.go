// pkg/session/session.go
package session

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/David-Botos/ecom-eda/pkg/cleaner"
	"github.com/David-Botos/ecom-eda/pkg/model"
)

// Dataset is one cleaned upload. It is never modified after construction;
// readers get copies or values.
type Dataset struct {
	records []model.CleanRecord
	report  model.Report
}

// NewDataset wraps a pipeline result. The result must not be modified afterwards.
func NewDataset(result *cleaner.Result) *Dataset {
	if result == nil {
		return &Dataset{}
	}
	return &Dataset{records: result.Records, report: result.Report}
}

// Len returns the number of cleaned records
func (d *Dataset) Len() int {
	return len(d.records)
}

// At returns a copy of the i-th record
func (d *Dataset) At(i int) model.CleanRecord {
	return d.records[i]
}

// Records returns a copy of every record
func (d *Dataset) Records() []model.CleanRecord {
	return slices.Clone(d.records)
}

// Each calls fn for every record in order until fn returns false
func (d *Dataset) Each(fn func(model.CleanRecord) bool) {
	for _, r := range d.records {
		if !fn(r) {
			return
		}
	}
}

// Report returns the diagnostic report of the run that produced the dataset
func (d *Dataset) Report() model.Report {
	report := d.report
	if d.report.ParseWarnings != nil {
		report.ParseWarnings = make(map[string]int, len(d.report.ParseWarnings))
		for k, v := range d.report.ParseWarnings {
			report.ParseWarnings[k] = v
		}
	}
	return report
}

// RunID returns the id of the pipeline run that produced the dataset
func (d *Dataset) RunID() string {
	return d.report.RunID
}

// Cleaner turns a raw table into a cleaned result
type Cleaner interface {
	Clean(ctx context.Context, table model.RawTable) (*cleaner.Result, error)
}

// Session holds the dataset the presentation layer currently reads.
// Loading a new upload replaces the previous dataset as a whole.
type Session struct {
	cleaner Cleaner
	current atomic.Pointer[Dataset]
	logger  *zap.Logger
}

// New creates an empty session that cleans uploads with c
func New(c Cleaner, logger *zap.Logger) (*Session, error) {
	if c == nil {
		return nil, errors.New("cleaner cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{cleaner: c, logger: logger}, nil
}

// Load cleans table and makes it the current dataset. When the upload is
// rejected the previous dataset stays current. A result returned together
// with an error (audit recording failed) is still installed.
func (s *Session) Load(ctx context.Context, table model.RawTable) (*Dataset, error) {
	result, err := s.cleaner.Clean(ctx, table)
	if result == nil {
		if err == nil {
			err = errors.New("cleaner returned no result")
		}
		s.logger.Warn("Keeping previous dataset",
			zap.String("source", table.Source),
			zap.Error(err))
		return nil, err
	}

	ds := NewDataset(result)
	if prev := s.current.Swap(ds); prev != nil {
		s.logger.Debug("Replaced dataset",
			zap.String("previous_run_id", prev.RunID()),
			zap.String("run_id", ds.RunID()))
	}
	return ds, err
}

// Current returns the dataset in use, or nil before the first successful load
func (s *Session) Current() *Dataset {
	return s.current.Load()
}
