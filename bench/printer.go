package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

const boxWidth = 73

// PrintSweep writes a summary table with one row per level, in run order.
func PrintSweep(w io.Writer, r *SweepReport) {
	fmt.Fprintf(w, "\n┌%s┐\n", strings.Repeat("─", boxWidth))
	fmt.Fprintf(w, "│  %-71s│\n", "Suite: "+r.Suite+" ("+r.Driver+")")
	fmt.Fprintf(w, "│  %-71s│\n", fmt.Sprintf("Calls per worker: %d", r.Count))
	if r.Duration > 0 {
		fmt.Fprintf(w, "│  %-71s│\n", "Duration: "+r.Duration.Round(time.Millisecond).String())
	}
	fmt.Fprintf(w, "├─────────┬─────────┬────────────┬────────────┬────────────┬──────────────┤\n")
	fmt.Fprintf(w, "│ Threads │ Workers │  Mean      │  p50       │  p95       │  TPS         │\n")
	fmt.Fprintf(w, "├─────────┼─────────┼────────────┼────────────┼────────────┼──────────────┤\n")
	for _, l := range r.Levels {
		fmt.Fprintf(w, "│ %7d │ %7d │ %-10s │ %-10s │ %-10s │ %-12.1f │\n",
			l.Level, l.Stats.Workers,
			FmtMs(l.Stats.Mean), FmtMs(l.Stats.P50), FmtMs(l.Stats.P95),
			l.Stats.TPS)
	}
	fmt.Fprintf(w, "└─────────┴─────────┴────────────┴────────────┴────────────┴──────────────┘\n")
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *SweepReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// FmtMs formats a millisecond value, switching to µs below 1ms.
func FmtMs(ms float64) string {
	if ms < 1 {
		return fmt.Sprintf("%.1fµs", ms*1000)
	}
	return fmt.Sprintf("%.3fms", ms)
}
