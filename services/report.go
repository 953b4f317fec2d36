package services

import (
	"fmt"
	"io"
	"math"
	"strings"

	"hdb-resale/models"
)

const barWidth = 30

// ReportPrinter renders a FilteredResult as terminal bar charts.
type ReportPrinter struct {
	// Color enables ANSI styling.
	Color bool
}

func (p ReportPrinter) style(code, s string) string {
	if !p.Color {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// Print writes the summary and the five views to w.
func (p ReportPrinter) Print(w io.Writer, r models.FilteredResult) {
	sep := strings.Repeat("═", 64)
	thin := strings.Repeat("─", 64)

	fmt.Fprintf(w, "\n%s\n", p.style("1;35", sep))
	fmt.Fprintf(w, "%s\n", p.style("1;35", "  HDB RESALE PRICES IN SINGAPORE"))
	fmt.Fprintf(w, "%s\n\n", p.style("1;35", sep))

	fmt.Fprintf(w, "%s\n", p.style("1;33", "  Filtered Data"))
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Matching transactions : %s\n", p.style("1", fmt.Sprintf("%d", len(r.Subset))))
	if len(r.Subset) > 0 {
		var total float64
		for _, t := range r.Subset {
			total += t.ResalePrice.Float64
		}
		fmt.Fprintf(w, "  Average resale price  : %s\n",
			p.style("1;32", fmt.Sprintf("S$%s", formatMoney(total/float64(len(r.Subset))))))
	}
	fmt.Fprintln(w)

	p.section(w, thin, "Average Resale Price by Town", r.AvgPriceByTown, true)
	p.section(w, thin, "Resale Price Trends Over Time", r.AvgPriceByMonth, true)
	p.section(w, thin, "Distribution of Flat Types", r.FlatTypeDistribution, false)
	p.section(w, thin, "Resale Price by Storey Range", r.AvgPriceByStorey, true)
	p.section(w, thin, "Resale Price by Lease Commence Date", r.AvgPriceByLeaseYear, true)

	if r.Geo != nil {
		fmt.Fprintf(w, "%s\n", p.style("1;33", "  Map of Resale Flats"))
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %d plotted locations\n\n", len(r.Geo.Points))
	}

	fmt.Fprintf(w, "%s\n\n", p.style("1;35", sep))
}

func (p ReportPrinter) section(w io.Writer, thin, title string, points []models.AggregatePoint, money bool) {
	fmt.Fprintf(w, "%s\n", p.style("1;33", "  "+title))
	fmt.Fprintf(w, "  %s\n", thin)
	if len(points) == 0 {
		fmt.Fprintf(w, "  No data for the current filters\n\n")
		return
	}

	var max float64
	for _, pt := range points {
		if pt.Value > max {
			max = pt.Value
		}
	}

	for _, pt := range points {
		n := 0
		if max > 0 {
			n = int(pt.Value / max * barWidth)
		}
		if n < 1 && pt.Value > 0 {
			n = 1
		}
		bar := strings.Repeat("█", n)
		value := fmt.Sprintf("%d", pt.Count)
		if money {
			value = "S$" + formatMoney(pt.Value)
		}
		fmt.Fprintf(w, "  %-22s %-*s %s\n", truncate(pt.Key, 22), barWidth, bar, value)
	}
	fmt.Fprintln(w)
}

// formatMoney renders a rounded amount with thousands separators.
func formatMoney(f float64) string {
	n := int64(math.Round(f))
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
