package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/clemsonciti/jobstats"
)

// Header returns the CSV header: the schema's fields followed by the two
// efficiency columns.
func Header(schema jobstats.Schema) []string {
	header := append([]string(nil), schema.Fields...)
	return append(header, jobstats.ColumnCPUEfficiency, jobstats.ColumnMemEfficiency)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Field renders the value of one column of row. Field names match in any
// case.
func Field(row jobstats.EfficiencyRow, column string) string {
	if f, ok := jobstats.CanonicalField(column); ok {
		column = f
	}
	switch column {
	case jobstats.FieldJobID:
		return row.JobID
	case jobstats.FieldPartition:
		return row.Partition
	case jobstats.FieldAllocCPUs:
		return strconv.Itoa(row.AllocCPUs)
	case jobstats.FieldTotalCPU:
		return formatFloat(row.TotalCPU)
	case jobstats.FieldReqMem:
		return formatFloat(row.ReqMemGB)
	case jobstats.FieldMaxRSS:
		return formatFloat(row.MaxRSSGB)
	case jobstats.FieldStart:
		return row.Start.Format(jobstats.TimestampLayout)
	case jobstats.FieldEnd:
		return row.End.Format(jobstats.TimestampLayout)
	case jobstats.FieldElapsed:
		return formatFloat(row.Elapsed)
	case jobstats.FieldState:
		return row.State
	case jobstats.FieldJobName:
		return row.JobName
	case jobstats.ColumnCPUEfficiency:
		return row.CPUEfficiency.String()
	case jobstats.ColumnMemEfficiency:
		return row.MemEfficiency.String()
	}
	return ""
}

// WriteCSV writes one line per job, with undefined ratios as
// jobstats.UndefinedMarker.
func WriteCSV(w io.Writer, schema jobstats.Schema, rows []jobstats.EfficiencyRow) error {
	cw := csv.NewWriter(w)
	header := Header(schema)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	record := make([]string, len(header))
	for _, r := range rows {
		for i, col := range header {
			record[i] = Field(r, col)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row for job %v: %w", r.JobID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteCSVFile(filename string, schema jobstats.Schema, rows []jobstats.EfficiencyRow) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %v: %w", filename, err)
	}
	if err := WriteCSV(f, schema, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
