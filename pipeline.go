package jobstats

import (
	"fmt"
	"log/slog"
	"strings"
)

// Policy decides what happens to a row whose fields fail to parse.
type Policy int

const (
	// PolicySkip logs the row and leaves it out of the report.
	PolicySkip Policy = iota
	// PolicyAbort stops the run at the first bad row.
	PolicyAbort
)

func (p Policy) String() string {
	if p == PolicyAbort {
		return "abort"
	}
	return "skip"
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "skip":
		return PolicySkip, nil
	case "abort":
		return PolicyAbort, nil
	}
	return PolicySkip, fmt.Errorf("unknown parse error policy %q (want skip or abort)", s)
}

// Pipeline turns raw sacct rows into the efficiency table.
type Pipeline struct {
	Schema Schema
	Policy Policy
	// Logger receives skipped rows. Nil means slog.Default().
	Logger *slog.Logger
}

type Result struct {
	Rows []EfficiencyRow
	// Skipped holds the rows dropped under PolicySkip.
	Skipped []*RecordError
	// Discarded counts rows that were not completed jobs or steps.
	Discarded int
}

// Run processes lines (header already removed) in one pass.
func (p *Pipeline) Run(lines []string) (*Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := p.Schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	var res Result
	merger := NewMerger()
	for i, line := range lines {
		tokens, ok := p.Schema.Tokenize(line)
		if !ok {
			continue
		}
		c, err := p.Schema.Classify(tokens)
		if err != nil {
			recErr := &RecordError{Line: i + 1, JobID: tokens[FieldJobID], Err: err}
			if p.Policy == PolicyAbort {
				return nil, recErr
			}
			logger.Warn("skipping job row", "line", recErr.Line, "jobID", recErr.JobID, "err", err)
			res.Skipped = append(res.Skipped, recErr)
			continue
		}
		if c.Kind == KindDiscard {
			res.Discarded++
			continue
		}
		merger.Add(c)
	}
	logger.Debug("merged sacct rows", "lines", len(lines), "jobs", merger.Len(), "discarded", res.Discarded)

	table, err := BuildTable(merger.Records())
	if err != nil {
		return nil, err
	}
	res.Rows = ComputeEfficiency(table)
	return &res, nil
}
