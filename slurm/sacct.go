package slurm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Query selects the jobs of one user started since Start. Start is passed to
// sacct as is, so relative forms such as now-1week work.
type Query struct {
	User   string
	Start  string
	Fields []string
}

// Args builds the sacct arguments for q.
func (q Query) Args() []string {
	args := []string{
		"--parsable2",
		"--format=" + strings.Join(q.Fields, ","),
	}
	if q.Start != "" {
		args = append(args, "--start", q.Start)
	}
	if q.User != "" {
		args = append(args, "-u", q.User)
	}
	return args
}

type Client struct {
	runner    Runner
	sacctPath string
}

// NewClient returns a client running sacctPath (default "sacct") with runner.
func NewClient(runner Runner, sacctPath string) *Client {
	if sacctPath == "" {
		sacctPath = "sacct"
	}
	return &Client{runner: runner, sacctPath: sacctPath}
}

// Sacct runs the query and returns the data lines of the output.
func (c *Client) Sacct(ctx context.Context, q Query) ([]string, error) {
	if len(q.Fields) == 0 {
		return nil, fmt.Errorf("sacct query has no fields")
	}
	slog.Debug("fetching jobs", "user", q.User, "start", q.Start, "method", "sacct")
	out, err := c.runner.Run(ctx, c.sacctPath, q.Args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to run sacct for user %v: %w", q.User, err)
	}
	lines := SplitOutput(out)
	slog.Debug("sacct returned", "lines", len(lines))
	return lines, nil
}

// SplitOutput splits sacct output into lines and drops the header line.
func SplitOutput(out []byte) []string {
	text := strings.ReplaceAll(string(out), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) <= 1 {
		return nil
	}
	lines = lines[1:]
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
