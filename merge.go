package jobstats

import (
	"log/slog"
)

// Merger folds step rows into the job row they belong to, keyed by the base
// job id. The final records do not depend on the order rows are added in.
type Merger struct {
	jobs  map[string]*JobRecord
	order []string
}

func NewMerger() *Merger {
	return &Merger{
		jobs: make(map[string]*JobRecord),
	}
}

func (m *Merger) entry(jobID string) *JobRecord {
	j, ok := m.jobs[jobID]
	if !ok {
		j = &JobRecord{JobID: jobID}
		m.jobs[jobID] = j
		m.order = append(m.order, jobID)
	}
	return j
}

// Add merges one classified row. The peak memory kept for a job is the
// largest value seen on any of its rows.
func (m *Merger) Add(c Classified) {
	switch c.Kind {
	case KindStep:
		j := m.entry(c.Record.JobID)
		j.MaxRSSGB = max(j.MaxRSSGB, c.Record.MaxRSSGB)
	case KindJob:
		j := m.entry(c.Record.JobID)
		maxRSS := max(j.MaxRSSGB, c.Record.MaxRSSGB)
		if j.seen {
			slog.Debug("ignoring duplicate job row", "jobID", c.Record.JobID)
		} else {
			*j = c.Record
		}
		j.MaxRSSGB = maxRSS
	}
}

// Len is the number of distinct job ids seen so far.
func (m *Merger) Len() int {
	return len(m.order)
}

// Records returns the merged records in the order their job ids first
// appeared, including incomplete ones.
func (m *Merger) Records() []JobRecord {
	out := make([]JobRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.jobs[id])
	}
	return out
}
