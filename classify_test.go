package jobstats

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// row builds a raw sacct line in DefaultFields order.
func row(jobID, partition, cpus, totalCPU, reqMem, maxRSS, start, end, elapsed, state, name string) string {
	return strings.Join([]string{jobID, partition, cpus, totalCPU, reqMem, maxRSS, start, end, elapsed, state, name}, Delimiter)
}

func testSchema() Schema {
	s := DefaultSchema()
	s.Location = time.UTC
	return s
}

func TestTokenize(t *testing.T) {
	s := testSchema()
	for _, tc := range []struct {
		line   string
		ok     bool
		jobID  string
		fields int
	}{
		{line: "", ok: false},
		{line: "   ", ok: false},
		{line: "|normal|2", ok: false},
		{line: "100|normal|2", ok: true, jobID: "100", fields: 3},
		{line: row("100", "normal", "2", "00:10:00", "4Gn", "", "a", "b", "c", "COMPLETED", "run1"), ok: true, jobID: "100", fields: 11},
		{line: row("100", "normal", "2", "00:10:00", "4Gn", "", "a", "b", "c", "COMPLETED", "run1") + "|extra", ok: true, jobID: "100", fields: 11},
	} {
		tokens, ok := s.Tokenize(tc.line)
		if ok != tc.ok {
			t.Errorf("line %q: expected ok=%v, got %v", tc.line, tc.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		if tokens[FieldJobID] != tc.jobID {
			t.Errorf("line %q: expected job id %v, got %v", tc.line, tc.jobID, tokens[FieldJobID])
		}
		if len(tokens) != tc.fields {
			t.Errorf("line %q: expected %v fields, got %v", tc.line, tc.fields, len(tokens))
		}
	}
}

func TestClassify(t *testing.T) {
	s := testSchema()
	start := "2023-05-01T10:00:00"
	end := "2023-05-01T10:20:00"
	for _, tc := range []struct {
		name     string
		line     string
		kind     Kind
		jobID    string
		maxRSS   float64
		errField string
	}{
		{
			name:  "completed job",
			line:  row("100", "normal", "2", "00:10:00", "4Gn", "", start, end, "00:20:00", "COMPLETED", "run1"),
			kind:  KindJob,
			jobID: "100",
		},
		{
			name:   "completed step",
			line:   row("100.batch", "", "", "", "", "2097152K", "", "", "", "COMPLETED", ""),
			kind:   KindStep,
			jobID:  "100",
			maxRSS: 2,
		},
		{
			name:   "array step",
			line:   row("200_3.extern", "", "", "", "", "1048576K", "", "", "", "COMPLETED", ""),
			kind:   KindStep,
			jobID:  "200_3",
			maxRSS: 1,
		},
		{
			name: "failed job",
			line: row("101", "normal", "2", "00:10:00", "4Gn", "", start, end, "00:20:00", "FAILED", "run2"),
			kind: KindDiscard,
		},
		{
			name: "cancelled by user",
			line: row("102", "normal", "2", "00:10:00", "4Gn", "", start, "Unknown", "00:20:00", "CANCELLED by 1000", "run3"),
			kind: KindDiscard,
		},
		{
			name: "running step",
			line: row("103.0", "", "", "", "", "10K", "", "", "", "RUNNING", ""),
			kind: KindDiscard,
		},
		{
			name:     "bad reqmem",
			line:     row("104", "normal", "2", "00:10:00", "4G", "", start, end, "00:20:00", "COMPLETED", "run4"),
			errField: FieldReqMem,
		},
		{
			name:     "bad elapsed",
			line:     row("105", "normal", "2", "00:10:00", "4Gn", "", start, end, "soon", "COMPLETED", "run5"),
			errField: FieldElapsed,
		},
		{
			name:     "bad total cpu",
			line:     row("106", "normal", "2", "", "4Gn", "", start, end, "00:20:00", "COMPLETED", "run6"),
			errField: FieldTotalCPU,
		},
		{
			name:     "zero cpus",
			line:     row("107", "normal", "0", "00:10:00", "4Gn", "", start, end, "00:20:00", "COMPLETED", "run7"),
			errField: FieldAllocCPUs,
		},
		{
			name:     "unknown end",
			line:     row("108", "normal", "1", "00:10:00", "4Gn", "", start, "Unknown", "00:20:00", "COMPLETED", "run8"),
			errField: FieldEnd,
		},
	} {
		tokens, ok := s.Tokenize(tc.line)
		if !ok {
			t.Errorf("%v: line was not tokenized", tc.name)
			continue
		}
		c, err := s.Classify(tokens)
		if tc.errField != "" {
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("%v: expected ParseError, got %v", tc.name, err)
			} else if pe.Field != tc.errField {
				t.Errorf("%v: expected error on field %v, got %v", tc.name, tc.errField, pe.Field)
			}
			continue
		}
		if err != nil {
			t.Errorf("%v: unexpected error %v", tc.name, err)
			continue
		}
		if c.Kind != tc.kind {
			t.Errorf("%v: expected kind %v, got %v", tc.name, tc.kind, c.Kind)
			continue
		}
		if c.Kind == KindDiscard {
			continue
		}
		if c.Record.JobID != tc.jobID {
			t.Errorf("%v: expected job id %v, got %v", tc.name, tc.jobID, c.Record.JobID)
		}
		if c.Record.MaxRSSGB != tc.maxRSS {
			t.Errorf("%v: expected max rss %v, got %v", tc.name, tc.maxRSS, c.Record.MaxRSSGB)
		}
	}
}

func TestClassifyJobFields(t *testing.T) {
	s := testSchema()
	tokens, _ := s.Tokenize(row("100", "normal", "4", "1-00:00:00", "2Gc", "", "2023-05-01T10:00:00", "2023-05-02T10:00:00", "1-00:00:00", "COMPLETED", "run1"))
	c, err := s.Classify(tokens)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := c.Record
	if r.Partition != "normal" || r.JobName != "run1" || r.State != "COMPLETED" {
		t.Errorf("string fields not copied: %+v", r)
	}
	if r.AllocCPUs != 4 {
		t.Errorf("expected 4 cpus, got %v", r.AllocCPUs)
	}
	if r.TotalCPU != 86400 || r.Elapsed != 86400 {
		t.Errorf("expected 86400s total cpu and elapsed, got %v and %v", r.TotalCPU, r.Elapsed)
	}
	if r.ReqMemGB != 8 {
		t.Errorf("expected 8 GB requested, got %v", r.ReqMemGB)
	}
	want := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	if !r.Start.Equal(want) {
		t.Errorf("expected start %v, got %v", want, r.Start)
	}
	if r.End.Sub(r.Start) != 24*time.Hour {
		t.Errorf("expected end one day after start, got %v", r.End)
	}
	if !r.IsComplete() {
		t.Errorf("expected record to be complete")
	}
}

func TestClassifyCustomSchema(t *testing.T) {
	s := testSchema()
	s.StepSeparator = ".batch"
	s.CompletedState = "CD"
	for _, tc := range []struct {
		line string
		kind Kind
	}{
		{line: row("100.batch", "", "", "", "", "10K", "", "", "", "CD", ""), kind: KindStep},
		{line: row("100.batch", "", "", "", "", "10K", "", "", "", "COMPLETED", ""), kind: KindDiscard},
	} {
		tokens, _ := s.Tokenize(tc.line)
		c, err := s.Classify(tokens)
		if err != nil {
			t.Errorf("line %q: unexpected error %v", tc.line, err)
			continue
		}
		if c.Kind != tc.kind {
			t.Errorf("line %q: expected %v, got %v", tc.line, tc.kind, c.Kind)
		}
	}
}

func TestSchemaValidate(t *testing.T) {
	if err := DefaultSchema().Validate(); err != nil {
		t.Errorf("default schema should be valid: %v", err)
	}
	s := DefaultSchema()
	s.Fields = s.Fields[:5]
	if err := s.Validate(); err == nil {
		t.Errorf("expected error for missing fields")
	}
	s = DefaultSchema()
	s.Fields = append(s.Fields, FieldJobID)
	if err := s.Validate(); err == nil {
		t.Errorf("expected error for duplicate field")
	}
	s = DefaultSchema()
	s.Fields = append(s.Fields, "JOBID")
	if err := s.Validate(); err == nil {
		t.Errorf("expected error for duplicate field in another case")
	}
	s = DefaultSchema()
	s.Fields = append(s.Fields, "NodeList")
	if err := s.Validate(); err == nil {
		t.Errorf("expected error for unsupported field")
	}
	s = DefaultSchema()
	s.Fields = []string{"JobID", "Partition", "AllocCPUS", "TotalCPU", "ReqMem", "MaxRSS", "Start", "End", "Elapsed", "State", "JobName"}
	if err := s.Validate(); err != nil {
		t.Errorf("sacct spelling of field names should be valid: %v", err)
	}
	s = DefaultSchema()
	s.StepSeparator = ""
	if err := s.Validate(); err == nil {
		t.Errorf("expected error for empty step separator")
	}
	if got := DefaultSchema().Format(); got != "Jobid,Partition,AllocCPUS,TotalCPU,ReqMem,MaxRSS,Start,End,Elapsed,State,Jobname" {
		t.Errorf("unexpected format string %v", got)
	}
}

func TestTokenizeSacctSpelling(t *testing.T) {
	s := testSchema()
	s.Fields = []string{"JobID", "Partition", "AllocCPUS", "TotalCPU", "ReqMem", "MaxRSS", "Start", "End", "Elapsed", "State", "JobName"}
	tokens, ok := s.Tokenize(row("100", "normal", "2", "00:10:00", "4Gn", "", "2023-05-01T10:00:00", "2023-05-01T10:20:00", "00:20:00", "COMPLETED", "run1"))
	if !ok {
		t.Fatalf("expected row to tokenize")
	}
	if tokens[FieldJobID] != "100" || tokens[FieldJobName] != "run1" {
		t.Errorf("expected canonical keys, got %v", tokens)
	}
	c, err := s.Classify(tokens)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Kind != KindJob || c.Record.JobID != "100" {
		t.Errorf("expected job 100, got %v %+v", c.Kind, c.Record)
	}
}
