package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/clemsonciti/jobstats"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Recorder exports efficiency tables to an sqlite file, one run per
// invocation.
type Recorder struct {
	db *sql.DB
}

// Run describes one invocation of jobstats.
type Run struct {
	ID        string
	CreatedAt time.Time
	User      string
	Start     string
	NumJobs   int
}

func New(filename string) (*Recorder, error) {
	var r Recorder
	var err error

	dirName := path.Dir(filename)
	err = os.MkdirAll(dirName, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory %v: %w", dirName, err)
	}

	r.db, err = sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open db filename %v: %w", filename, err)
	}
	err = r.migrate()
	if err != nil {
		r.db.Close()
		return nil, fmt.Errorf("failed to migrate db filename %v: %w", filename, err)
	}

	return &r, nil
}

func (r *Recorder) migrate() error {
	var err error
	_, err = r.db.Exec(`
	CREATE TABLE IF NOT EXISTS run (
		run_id TEXT PRIMARY KEY,
		created_unix INTEGER NOT NULL,
		username TEXT NOT NULL,
		window_start TEXT NOT NULL,
		num_jobs INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create run table: %w", err)
	}

	_, err = r.db.Exec(`
	CREATE TABLE IF NOT EXISTS job_efficiency (
		run_id TEXT NOT NULL,
		job_id TEXT NOT NULL,
		partition_name TEXT NOT NULL,
		alloc_cpus INTEGER NOT NULL,
		total_cpu_seconds REAL NOT NULL,
		req_mem_gb REAL NOT NULL,
		max_rss_gb REAL NOT NULL,
		start_unix INTEGER NOT NULL,
		end_unix INTEGER NOT NULL,
		elapsed_seconds REAL NOT NULL,
		state TEXT NOT NULL,
		job_name TEXT NOT NULL,
		cpu_efficiency REAL,
		mem_efficiency REAL,
		PRIMARY KEY (run_id, job_id)
	)`)
	if err != nil {
		return fmt.Errorf("failed to create job_efficiency table: %w", err)
	}

	return nil
}

func nullRatio(r jobstats.Ratio) sql.NullFloat64 {
	return sql.NullFloat64{Float64: r.Value, Valid: r.Defined}
}

// RecordRun stores run and its rows in one transaction. An empty run.ID is
// replaced with a new uuid. The stored run is returned.
func (r *Recorder) RecordRun(run Run, rows []jobstats.EfficiencyRow) (*Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.NumJobs = len(rows)

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction to record run: %v", err)
	}
	defer tx.Rollback() // nolint: errcheck

	_, err = tx.Exec(`
	INSERT INTO run(run_id, created_unix, username, window_start, num_jobs)
	VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.CreatedAt.Unix(), run.User, run.Start, run.NumJobs)
	if err != nil {
		return nil, fmt.Errorf("failed to add run %v: %w", run.ID, err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO job_efficiency (
		run_id, job_id, partition_name, alloc_cpus,
		total_cpu_seconds, req_mem_gb, max_rss_gb,
		start_unix, end_unix, elapsed_seconds,
		state, job_name, cpu_efficiency, mem_efficiency
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare job insert: %w", err)
	}
	defer stmt.Close()

	for _, j := range rows {
		_, err = stmt.Exec(run.ID, j.JobID, j.Partition, j.AllocCPUs,
			j.TotalCPU, j.ReqMemGB, j.MaxRSSGB,
			j.Start.Unix(), j.End.Unix(), j.Elapsed,
			j.State, j.JobName,
			nullRatio(j.CPUEfficiency), nullRatio(j.MemEfficiency))
		if err != nil {
			return nil, fmt.Errorf("failed to add job %v: %w", j.JobID, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("failed to commit run: %v", err)
	}
	return &run, nil
}

func (r *Recorder) GetRun(runID string) (*Run, error) {
	var run Run
	var createdUnix int64
	err := r.db.QueryRow(`
		SELECT run_id, created_unix, username, window_start, num_jobs
		FROM run
		WHERE run_id = ?
		`, runID).Scan(&run.ID, &createdUnix, &run.User, &run.Start, &run.NumJobs)
	if err != nil {
		return nil, err
	}
	run.CreatedAt = time.Unix(createdUnix, 0)
	return &run, nil
}

// GetRows returns the rows of a run ordered by job id. Timestamps come back
// in local time.
func (r *Recorder) GetRows(runID string) ([]jobstats.EfficiencyRow, error) {
	var out []jobstats.EfficiencyRow

	rows, err := r.db.Query(`
		SELECT
			job_id, partition_name, alloc_cpus,
			total_cpu_seconds, req_mem_gb, max_rss_gb,
			start_unix, end_unix, elapsed_seconds,
			state, job_name, cpu_efficiency, mem_efficiency
		FROM job_efficiency
		WHERE run_id = ?
		ORDER BY job_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var j jobstats.EfficiencyRow
		var startUnix, endUnix int64
		var cpuEff, memEff sql.NullFloat64
		err = rows.Scan(&j.JobID, &j.Partition, &j.AllocCPUs,
			&j.TotalCPU, &j.ReqMemGB, &j.MaxRSSGB,
			&startUnix, &endUnix, &j.Elapsed,
			&j.State, &j.JobName, &cpuEff, &memEff)
		if err != nil {
			return nil, err
		}
		j.Start = time.Unix(startUnix, 0)
		j.End = time.Unix(endUnix, 0)
		j.CPUEfficiency = jobstats.Ratio{Value: cpuEff.Float64, Defined: cpuEff.Valid}
		j.MemEfficiency = jobstats.Ratio{Value: memEff.Float64, Defined: memEff.Valid}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *Recorder) Close() error {
	return r.db.Close()
}
