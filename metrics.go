package jobstats

import (
	"math"
	"strconv"
)

// UndefinedMarker is how an undefined Ratio is printed.
const UndefinedMarker = "NA"

// Ratio is a derived metric. Defined is false when the denominator was zero
// (or the result was otherwise not a finite number).
type Ratio struct {
	Value   float64
	Defined bool
}

func NewRatio(num, den float64) Ratio {
	if den == 0 {
		return Ratio{}
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Ratio{}
	}
	return Ratio{Value: v, Defined: true}
}

func (r Ratio) String() string {
	if !r.Defined {
		return UndefinedMarker
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

type EfficiencyRow struct {
	JobRecord
	CPUEfficiency Ratio
	MemEfficiency Ratio
}

// CPUEfficiency is consumed CPU time over allocated CPUs times wall time.
func CPUEfficiency(j JobRecord) Ratio {
	return NewRatio(j.TotalCPU, float64(j.AllocCPUs)*j.Elapsed)
}

// MemEfficiency is peak memory over requested memory.
func MemEfficiency(j JobRecord) Ratio {
	return NewRatio(j.MaxRSSGB, j.ReqMemGB)
}

func ComputeEfficiency(records []JobRecord) []EfficiencyRow {
	rows := make([]EfficiencyRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, EfficiencyRow{
			JobRecord:     r,
			CPUEfficiency: CPUEfficiency(r),
			MemEfficiency: MemEfficiency(r),
		})
	}
	return rows
}
