package jobstats

import (
	"log/slog"
)

// BuildTable keeps the complete records. An empty result is ErrNoJobs.
func BuildTable(records []JobRecord) ([]JobRecord, error) {
	var table []JobRecord
	for _, r := range records {
		if !r.IsComplete() {
			slog.Debug("dropping incomplete job", "jobID", r.JobID)
			continue
		}
		table = append(table, r)
	}
	if len(table) == 0 {
		return nil, ErrNoJobs
	}
	return table, nil
}
