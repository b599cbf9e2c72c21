package jobstats

import (
	"errors"
	"fmt"
)

// ErrNoJobs is returned when no complete job survives filtering and merging.
var ErrNoJobs = errors.New("no jobs found")

// ParseError reports a field value that matches none of the encodings sacct
// is known to produce.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("failed to parse %s %q", e.Field, e.Value)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RecordError ties a failure to the input line and job it came from.
type RecordError struct {
	Line  int
	JobID string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d (job %s): %v", e.Line, e.JobID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
