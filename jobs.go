package jobstats

import (
	"time"
)

// JobRecord is one finished job after its sacct rows have been normalized
// and merged.
type JobRecord struct {
	JobID     string
	Partition string
	AllocCPUs int
	// TotalCPU and Elapsed are in seconds.
	TotalCPU float64
	ReqMemGB float64
	// MaxRSSGB is 0 when no peak memory was reported.
	MaxRSSGB float64
	Start    time.Time
	End      time.Time
	Elapsed  float64
	State    string
	JobName  string

	// seen is set once the top-level row of the job has been merged.
	seen bool
}

// IsComplete reports whether every required field of the record is set.
func (j *JobRecord) IsComplete() bool {
	return j.seen &&
		j.JobID != "" &&
		j.AllocCPUs >= 1 &&
		!j.Start.IsZero() &&
		!j.End.IsZero() &&
		j.State != ""
}

type Kind int

const (
	KindDiscard Kind = iota
	KindStep
	KindJob
)

func (k Kind) String() string {
	switch k {
	case KindStep:
		return "step"
	case KindJob:
		return "job"
	}
	return "discard"
}

// Classified is the outcome of classifying one tokenized row. For KindStep
// only JobID (truncated to the base job) and MaxRSSGB are meaningful.
type Classified struct {
	Kind   Kind
	Record JobRecord
}
