package jobstats

import (
	"math"
	"slices"
)

// Stats summarizes one column. Undefined values are counted in Undefined and
// otherwise ignored.
type Stats struct {
	Column    string
	Count     int
	Undefined int
	Mean      Ratio
	Std       Ratio
	Min       Ratio
	P25       Ratio
	P50       Ratio
	P75       Ratio
	Max       Ratio
}

func defined(v float64) Ratio {
	return Ratio{Value: v, Defined: true}
}

// Describe computes count, mean, sample standard deviation, min, quartiles
// and max of the defined values.
func Describe(column string, values []Ratio) Stats {
	st := Stats{Column: column}
	var vals []float64
	for _, v := range values {
		if !v.Defined {
			st.Undefined++
			continue
		}
		vals = append(vals, v.Value)
	}
	st.Count = len(vals)
	if st.Count == 0 {
		return st
	}
	slices.Sort(vals)

	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	st.Mean = defined(mean)
	if len(vals) > 1 {
		var sq float64
		for _, v := range vals {
			sq += (v - mean) * (v - mean)
		}
		st.Std = defined(math.Sqrt(sq / float64(len(vals)-1)))
	}
	st.Min = defined(vals[0])
	st.P25 = defined(quantile(vals, 0.25))
	st.P50 = defined(quantile(vals, 0.5))
	st.P75 = defined(quantile(vals, 0.75))
	st.Max = defined(vals[len(vals)-1])
	return st
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Summary column names, matching the CSV header.
const (
	ColumnCPUEfficiency = "CPU_Efficiency"
	ColumnMemEfficiency = "MEM_Efficiency"
)

// Summarize describes the numeric columns of the table.
func Summarize(rows []EfficiencyRow) []Stats {
	columns := []struct {
		name  string
		value func(r EfficiencyRow) Ratio
	}{
		{FieldAllocCPUs, func(r EfficiencyRow) Ratio { return defined(float64(r.AllocCPUs)) }},
		{FieldTotalCPU, func(r EfficiencyRow) Ratio { return defined(r.TotalCPU) }},
		{FieldReqMem, func(r EfficiencyRow) Ratio { return defined(r.ReqMemGB) }},
		{FieldMaxRSS, func(r EfficiencyRow) Ratio { return defined(r.MaxRSSGB) }},
		{FieldElapsed, func(r EfficiencyRow) Ratio { return defined(r.Elapsed) }},
		{ColumnCPUEfficiency, func(r EfficiencyRow) Ratio { return r.CPUEfficiency }},
		{ColumnMemEfficiency, func(r EfficiencyRow) Ratio { return r.MemEfficiency }},
	}
	out := make([]Stats, 0, len(columns))
	for _, c := range columns {
		values := make([]Ratio, len(rows))
		for i, r := range rows {
			values[i] = c.value(r)
		}
		out = append(out, Describe(c.name, values))
	}
	return out
}
