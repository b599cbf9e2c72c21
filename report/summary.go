package report

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/clemsonciti/jobstats"
)

// PrintSummary prints the job count and the describe table of the numeric
// columns.
func PrintSummary(w io.Writer, state, start string, rows []jobstats.EfficiencyRow) {
	fmt.Fprintf(w, "Found %d %s jobs since %s, summary:\n", len(rows), state, start)
	stats := jobstats.Summarize(rows)
	fmt.Fprintf(w, "%-8v", "")
	for _, st := range stats {
		fmt.Fprintf(w, "%16v", st.Column)
	}
	fmt.Fprintln(w)
	for _, line := range []struct {
		name  string
		value func(jobstats.Stats) string
	}{
		{"count", func(st jobstats.Stats) string { return fmt.Sprint(st.Count) }},
		{"undef", func(st jobstats.Stats) string { return fmt.Sprint(st.Undefined) }},
		{"mean", func(st jobstats.Stats) string { return formatStat(st.Mean) }},
		{"std", func(st jobstats.Stats) string { return formatStat(st.Std) }},
		{"min", func(st jobstats.Stats) string { return formatStat(st.Min) }},
		{"25%", func(st jobstats.Stats) string { return formatStat(st.P25) }},
		{"50%", func(st jobstats.Stats) string { return formatStat(st.P50) }},
		{"75%", func(st jobstats.Stats) string { return formatStat(st.P75) }},
		{"max", func(st jobstats.Stats) string { return formatStat(st.Max) }},
	} {
		fmt.Fprintf(w, "%-8v", line.name)
		for _, st := range stats {
			fmt.Fprintf(w, "%16v", line.value(st))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}

func formatStat(r jobstats.Ratio) string {
	if !r.Defined {
		return jobstats.UndefinedMarker
	}
	return fmt.Sprintf("%.6f", r.Value)
}

// SampleColumns are the columns shown by PrintSample.
var SampleColumns = []string{
	jobstats.FieldJobID,
	jobstats.FieldAllocCPUs,
	jobstats.FieldTotalCPU,
	jobstats.FieldElapsed,
	jobstats.FieldMaxRSS,
	jobstats.FieldReqMem,
	jobstats.ColumnCPUEfficiency,
	jobstats.ColumnMemEfficiency,
}

// Sample picks n rows at random, or all of them if there are fewer.
func Sample(rows []jobstats.EfficiencyRow, n int, rng *rand.Rand) []jobstats.EfficiencyRow {
	if n >= len(rows) {
		return rows
	}
	if n <= 0 {
		return nil
	}
	out := make([]jobstats.EfficiencyRow, 0, n)
	for _, i := range rng.Perm(len(rows))[:n] {
		out = append(out, rows[i])
	}
	return out
}

func PrintSample(w io.Writer, rows []jobstats.EfficiencyRow, n int, rng *rand.Rand) {
	sample := Sample(rows, n, rng)
	fmt.Fprintf(w, "Showing random subsample (%d) of found jobs:\n", len(sample))
	for _, col := range SampleColumns {
		fmt.Fprintf(w, "%-16v", col)
	}
	fmt.Fprintln(w)
	for _, r := range sample {
		for _, col := range SampleColumns {
			fmt.Fprintf(w, "%-16v", Field(r, col))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}
