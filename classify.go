package jobstats

import (
	"errors"
	"strconv"
	"strings"
)

// Classify decides what a tokenized row is. Rows that are not in the
// completed state are discarded. Step rows only contribute their peak
// memory, keyed by the base job id. Job rows are fully normalized, and any
// field that fails to parse is returned as a *ParseError.
func (s Schema) Classify(t Tokens) (Classified, error) {
	jobID := t[FieldJobID]
	if jobID == "" || t[FieldState] != s.CompletedState {
		return Classified{Kind: KindDiscard}, nil
	}

	if base, _, isStep := strings.Cut(jobID, s.StepSeparator); isStep {
		return Classified{
			Kind: KindStep,
			Record: JobRecord{
				JobID:    base,
				MaxRSSGB: ParseMaxRSS(t[FieldMaxRSS]),
			},
		}, nil
	}

	rec := JobRecord{
		JobID:     jobID,
		Partition: t[FieldPartition],
		State:     t[FieldState],
		JobName:   t[FieldJobName],
		MaxRSSGB:  ParseMaxRSS(t[FieldMaxRSS]),
		seen:      true,
	}
	var err error
	rec.AllocCPUs, err = strconv.Atoi(t[FieldAllocCPUs])
	if err != nil || rec.AllocCPUs < 1 {
		if err == nil {
			err = errors.New("must be at least 1")
		}
		return Classified{}, &ParseError{Field: FieldAllocCPUs, Value: t[FieldAllocCPUs], Err: err}
	}
	if rec.TotalCPU, err = ParseDuration(t[FieldTotalCPU]); err != nil {
		return Classified{}, relabel(err, FieldTotalCPU)
	}
	if rec.ReqMemGB, err = ParseReqMem(t[FieldReqMem], rec.AllocCPUs); err != nil {
		return Classified{}, err
	}
	if rec.Start, err = ParseTimestamp(t[FieldStart], s.Location); err != nil {
		return Classified{}, relabel(err, FieldStart)
	}
	if rec.End, err = ParseTimestamp(t[FieldEnd], s.Location); err != nil {
		return Classified{}, relabel(err, FieldEnd)
	}
	if rec.Elapsed, err = ParseDuration(t[FieldElapsed]); err != nil {
		return Classified{}, relabel(err, FieldElapsed)
	}
	return Classified{Kind: KindJob, Record: rec}, nil
}

// relabel names the column a generic parser failed on.
func relabel(err error, field string) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Field = field
	}
	return err
}
