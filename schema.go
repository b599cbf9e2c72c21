package jobstats

import (
	"fmt"
	"strings"
	"time"
)

// Names of the sacct columns the classifier reads.
const (
	FieldJobID     = "Jobid"
	FieldPartition = "Partition"
	FieldAllocCPUs = "AllocCPUS"
	FieldTotalCPU  = "TotalCPU"
	FieldReqMem    = "ReqMem"
	FieldMaxRSS    = "MaxRSS"
	FieldStart     = "Start"
	FieldEnd       = "End"
	FieldElapsed   = "Elapsed"
	FieldState     = "State"
	FieldJobName   = "Jobname"
)

// DefaultFields is the sacct --format list, in output order.
var DefaultFields = []string{
	FieldJobID,
	FieldPartition,
	FieldAllocCPUs,
	FieldTotalCPU,
	FieldReqMem,
	FieldMaxRSS,
	FieldStart,
	FieldEnd,
	FieldElapsed,
	FieldState,
	FieldJobName,
}

const (
	DefaultCompletedState = "COMPLETED"
	DefaultStepSeparator  = "."
	// Delimiter is the column separator of sacct --parsable2.
	Delimiter = "|"
)

// Schema describes the raw rows: their columns, the state that marks a
// finished job and the separator between a job id and its step name.
type Schema struct {
	Fields         []string
	CompletedState string
	StepSeparator  string
	// Location is used to read Start and End. Nil means time.Local.
	Location *time.Location
}

func DefaultSchema() Schema {
	return Schema{
		Fields:         append([]string(nil), DefaultFields...),
		CompletedState: DefaultCompletedState,
		StepSeparator:  DefaultStepSeparator,
		Location:       time.Local,
	}
}

var canonicalFields = func() map[string]string {
	m := make(map[string]string, len(DefaultFields))
	for _, f := range DefaultFields {
		m[strings.ToLower(f)] = f
	}
	return m
}()

// CanonicalField maps a sacct column name to its Field constant. sacct
// ignores case in --format, so JobID and Jobid are the same column.
func CanonicalField(name string) (string, bool) {
	f, ok := canonicalFields[strings.ToLower(name)]
	return f, ok
}

// Validate checks that every column is one the classifier reads, and that all
// of them are present.
func (s Schema) Validate() error {
	have := make(map[string]bool, len(s.Fields))
	for _, name := range s.Fields {
		f, ok := CanonicalField(name)
		if !ok {
			return fmt.Errorf("unsupported field %v in format", name)
		}
		if have[f] {
			return fmt.Errorf("duplicate field %v in format", name)
		}
		have[f] = true
	}
	var missing []string
	for _, f := range DefaultFields {
		if !have[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("format is missing required fields: %v", strings.Join(missing, ","))
	}
	if s.CompletedState == "" {
		return fmt.Errorf("completed state must not be empty")
	}
	if s.StepSeparator == "" {
		return fmt.Errorf("step separator must not be empty")
	}
	return nil
}

// Format returns the value for sacct --format.
func (s Schema) Format() string {
	return strings.Join(s.Fields, ",")
}

// Tokens maps field names to the raw values of one row.
type Tokens map[string]string

// Tokenize splits one raw line and pairs its values with the schema's field
// names, keyed by their canonical spelling. Surplus values or names are
// dropped. Blank lines and lines without a job id report false.
func (s Schema) Tokenize(line string) (Tokens, bool) {
	if strings.TrimSpace(line) == "" {
		return nil, false
	}
	values := strings.Split(line, Delimiter)
	n := min(len(values), len(s.Fields))
	t := make(Tokens, n)
	for i := 0; i < n; i++ {
		name := s.Fields[i]
		if f, ok := CanonicalField(name); ok {
			name = f
		}
		t[name] = values[i]
	}
	if t[FieldJobID] == "" {
		return nil, false
	}
	return t, true
}
