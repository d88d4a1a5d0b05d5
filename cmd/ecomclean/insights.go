// cmd/ecomclean/insights.go
package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/David-Botos/ecom-eda/pkg/insights"
)

func newInsightsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "insights [FILE]",
		Short: "Clean a transactions file and print dashboard aggregates",
		Args:  inputArgs(flags),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			ds, err := a.load(cmd.Context(), args)
			if ds == nil {
				return err
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			summary, err := insights.Summarize(ds)
			if err != nil {
				return err
			}
			if flags.json {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			writeSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func writeSummary(w io.Writer, s *insights.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total revenue\t%.2f\n", s.KPIs.TotalRevenue)
	fmt.Fprintf(tw, "Orders\t%d\n", s.KPIs.Orders)
	fmt.Fprintf(tw, "Customers\t%d (new %d, repeat %d)\n", s.KPIs.Customers, s.Customers.New, s.Customers.Repeat)
	fmt.Fprintf(tw, "Mean revenue per line\t%.2f\n", s.KPIs.MeanRevenuePerLine)
	fmt.Fprintf(tw, "Weekend / weekday revenue\t%.2f / %.2f\n", s.WeekendRevenue, s.WeekdayRevenue)
	tw.Flush()

	section(w, "Monthly revenue", s.MonthlyRevenue, "%.2f")
	section(w, "Top products", s.TopProducts, "%.2f")
	section(w, "Top customers", s.TopCustomers, "%.2f")
	section(w, "Category share", s.CategoryShare, "%.1f%%")
	section(w, "Revenue by region", s.RegionRevenue, "%.2f")
	section(w, "Payment methods", s.PaymentMethods, "%.0f")
	section(w, "Lines by day of week", s.DayOfWeekLines, "%.0f")
	section(w, "Revenue by hour", s.HourlyRevenue, "%.2f")

	fmt.Fprintln(w, "\nDiscount buckets")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, b := range s.DiscountBuckets {
		fmt.Fprintf(tw, "  %s\t%d lines\tmedian %.2f\tmean %.2f\n", b.Label, b.Lines, b.MedianRevenue, b.MeanRevenue)
	}
	tw.Flush()

	fmt.Fprintln(w, "\nCorrelation")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, " ")
	for _, c := range s.Correlation.Columns {
		fmt.Fprintf(tw, "\t%s", c)
	}
	fmt.Fprintln(tw)
	for i, c := range s.Correlation.Columns {
		fmt.Fprintf(tw, "  %s", c)
		for _, v := range s.Correlation.Values[i] {
			fmt.Fprintf(tw, "\t%.3f", float64(v))
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

func section(w io.Writer, title string, pairs []insights.Pair, format string) {
	if len(pairs) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, p := range pairs {
		fmt.Fprintf(tw, "  %s\t"+format+"\n", p.Key, p.Value)
	}
	tw.Flush()
}
