// cmd/ecomclean/clean.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/David-Botos/ecom-eda/pkg/export"
	"github.com/David-Botos/ecom-eda/pkg/model"
)

func newCleanCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [FILE]",
		Short: "Clean a transactions file and print the cleaning report",
		Args:  inputArgs(flags),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			ds, err := a.load(ctx, args)
			if ds == nil {
				return err
			}
			// the cleaned set is still usable when only the audit failed
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			var exported *export.Result
			if flags.export {
				if exported, err = a.exportDataset(ctx, ds); err != nil {
					return err
				}
			}

			report := ds.Report()
			if flags.json {
				return writeJSON(cmd.OutOrStdout(), cleanOutput{Report: reportJSON(report), Export: exported})
			}
			writeReport(cmd.OutOrStdout(), report)
			if exported != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\nExported %d rows to %s (verified: %t)\n",
					exported.RowsWritten, exported.Table, exported.Verified)
			}
			return nil
		},
	}
}

type cleanOutput struct {
	Report reportOutput   `json:"report"`
	Export *export.Result `json:"export,omitempty"`
}

type reportOutput struct {
	RunID                    string         `json:"run_id"`
	Source                   string         `json:"source"`
	InputRows                int            `json:"input_rows"`
	OutputRows               int            `json:"output_rows"`
	NullKeyRows              int            `json:"null_key_rows"`
	DuplicateRows            int            `json:"duplicate_rows"`
	InvalidPriceQuantityRows int            `json:"invalid_price_quantity_rows"`
	InvalidDiscountRows      int            `json:"invalid_discount_rows"`
	ImputedQuantities        int            `json:"imputed_quantities"`
	QuantityMedian           *float64       `json:"quantity_median"`
	ParseWarnings            map[string]int `json:"parse_warnings"`
	MissingDatetimes         int            `json:"missing_datetimes"`
	DurationMS               int64          `json:"duration_ms"`
}

func reportJSON(r model.Report) reportOutput {
	out := reportOutput{
		RunID:                    r.RunID,
		Source:                   r.Source,
		InputRows:                r.InputRows,
		OutputRows:               r.OutputRows,
		NullKeyRows:              r.NullKeyRows,
		DuplicateRows:            r.DuplicateRows,
		InvalidPriceQuantityRows: r.InvalidPriceQuantityRows,
		InvalidDiscountRows:      r.InvalidDiscountRows,
		ImputedQuantities:        r.ImputedQuantities,
		ParseWarnings:            r.ParseWarnings,
		MissingDatetimes:         r.MissingDatetimes,
		DurationMS:               r.Duration.Milliseconds(),
	}
	if r.HasMedian {
		m := r.QuantityMedian
		out.QuantityMedian = &m
	}
	if out.ParseWarnings == nil {
		out.ParseWarnings = map[string]int{}
	}
	return out
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeReport(w io.Writer, r model.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run\t%s\n", r.RunID)
	fmt.Fprintf(tw, "Source\t%s\n", r.Source)
	fmt.Fprintf(tw, "Input rows\t%d\n", r.InputRows)
	fmt.Fprintf(tw, "Output rows\t%d\n", r.OutputRows)
	fmt.Fprintf(tw, "Dropped: missing keys\t%d\n", r.NullKeyRows)
	fmt.Fprintf(tw, "Dropped: duplicates\t%d\n", r.DuplicateRows)
	fmt.Fprintf(tw, "Dropped: invalid price/quantity\t%d\n", r.InvalidPriceQuantityRows)
	fmt.Fprintf(tw, "Dropped: invalid discount\t%d\n", r.InvalidDiscountRows)
	if r.HasMedian {
		fmt.Fprintf(tw, "Imputed quantities\t%d (median %g)\n", r.ImputedQuantities, r.QuantityMedian)
	} else {
		fmt.Fprintf(tw, "Imputed quantities\t%d (no median)\n", r.ImputedQuantities)
	}
	fmt.Fprintf(tw, "Rows without datetime\t%d\n", r.MissingDatetimes)

	columns := make([]string, 0, len(r.ParseWarnings))
	for c := range r.ParseWarnings {
		columns = append(columns, c)
	}
	sort.Strings(columns)
	for _, c := range columns {
		fmt.Fprintf(tw, "Unparsable %s\t%d\n", c, r.ParseWarnings[c])
	}
	tw.Flush()
}
