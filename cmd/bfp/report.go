package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/utakatalp/football-pool/internal/pool"
)

var kindTitles = map[pool.Kind]string{
	pool.KindSU:  "Straight Up",
	pool.KindATS: "Against the Spread",
}

// printReport renders the season table: swami, wins per week, total wins
// and win percentage.
func printReport(w io.Writer, r *pool.Report) {
	fmt.Fprintf(w, "%s %d - %s\n\n", r.Pool, r.Season, kindTitles[r.Kind])

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{"Swami"}
	for _, wk := range r.Weeks {
		header = append(header, fmt.Sprintf("Wk %d", wk))
	}
	header = append(header, "W-L-T", "Pct")
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, row := range r.Rows {
		cols := []string{row.Swami}
		for _, n := range row.WeekWins {
			cols = append(cols, fmt.Sprint(n))
		}
		cols = append(cols, row.Total.String(), fmt.Sprintf("%.3f", row.WinPct))
		fmt.Fprintln(tw, strings.Join(cols, "\t")+"\t")
	}
	tw.Flush()

	if winners := r.Winners(); len(winners) > 0 {
		fmt.Fprintf(w, "\nWinner: %s\n", strings.Join(winners, ", "))
	}
	fmt.Fprintln(w)
}
