package slurm

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// IsAvailable reports whether the sacct binary at path can be run. A bare
// name is looked up in PATH; an empty path means "sacct".
func IsAvailable(path string) bool {
	if path == "" {
		path = "sacct"
	}
	_, err := exec.LookPath(path)
	if err == nil {
		slog.Debug("found sacct", "path", path)
		return true
	}
	slog.Debug("failed to find sacct", "path", path, "err", err)
	return false
}

// Runner runs a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type ExecCommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// ExecRunner runs commands on the local host.
type ExecRunner struct {
	execCommand ExecCommandFunc
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{execCommand: exec.CommandContext}
}

// WithCommand replaces the command factory, mostly for tests.
func (r *ExecRunner) WithCommand(f ExecCommandFunc) *ExecRunner {
	r.execCommand = f
	return r
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := r.execCommand(ctx, name, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	slog.Debug("running command", "cmd", cmd.String())
	err := cmd.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run %v: %w (stderr: %s)", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return out.Bytes(), nil
}
