// pkg/reader/csv.go
package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/David-Botos/ecom-eda/pkg/model"
)

// CSVOptions controls how an uploaded file is read
type CSVOptions struct {
	// Field delimiter; 0 means ','
	Delimiter rune
	// MaxRows limits data rows read; 0 means unlimited
	MaxRows int
}

// ReadCSVFile opens path and reads it as a transactions table
func ReadCSVFile(path string, opts CSVOptions) (model.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.RawTable{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	table, err := ReadCSV(f, opts)
	if err != nil {
		return model.RawTable{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	table.Source = filepath.Base(path)
	return table, nil
}

// ReadCSV reads delimited text with a header row. Columns are matched by
// normalised header name; unknown columns are ignored and missing ones are
// left for schema validation to report.
func ReadCSV(r io.Reader, opts CSVOptions) (model.RawTable, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return model.RawTable{}, errors.New("file is empty: header row expected")
	}
	if err != nil {
		return model.RawTable{}, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = NormalizeColumn(h, i == 0)
	}

	table := model.RawTable{Columns: columns}
	for {
		if opts.MaxRows > 0 && len(table.Records) >= opts.MaxRows {
			break
		}

		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.RawTable{}, fmt.Errorf("failed to read row %d: %w", len(table.Records)+1, err)
		}
		if isBlank(fields) {
			continue
		}

		rec := model.RawRecord{Line: len(table.Records) + 1}
		for i, value := range fields {
			if i >= len(columns) {
				break
			}
			rec.Set(columns[i], value)
		}
		table.Records = append(table.Records, rec)
	}

	return table, nil
}

// NormalizeColumn trims, lower-cases and strips a UTF-8 BOM from the first
// header cell
func NormalizeColumn(name string, first bool) string {
	if first {
		name = strings.TrimPrefix(name, "\ufeff")
	}
	return strings.ToLower(strings.TrimSpace(name))
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
