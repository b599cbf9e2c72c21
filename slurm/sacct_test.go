package slurm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

var testFields = []string{"Jobid", "State"}

func TestQueryArgs(t *testing.T) {
	for _, tc := range []struct {
		q    Query
		args []string
	}{
		{
			q:    Query{User: "alice", Start: "now-1week", Fields: testFields},
			args: []string{"--parsable2", "--format=Jobid,State", "--start", "now-1week", "-u", "alice"},
		},
		{
			q:    Query{Fields: testFields},
			args: []string{"--parsable2", "--format=Jobid,State"},
		},
	} {
		if args := tc.q.Args(); !reflect.DeepEqual(args, tc.args) {
			t.Errorf("for query %+v expected %v, got %v", tc.q, tc.args, args)
		}
	}
}

func TestSplitOutput(t *testing.T) {
	for _, tc := range []struct {
		input string
		lines []string
	}{
		{input: "", lines: nil},
		{input: "JobID|State", lines: nil},
		{input: "JobID|State\n", lines: nil},
		{input: "JobID|State\n1|COMPLETED\n1.batch|COMPLETED\n", lines: []string{"1|COMPLETED", "1.batch|COMPLETED"}},
		{input: "JobID|State\r\n1|COMPLETED\r\n", lines: []string{"1|COMPLETED"}},
		{input: "JobID|State\n\n2|FAILED", lines: []string{"", "2|FAILED"}},
	} {
		lines := SplitOutput([]byte(tc.input))
		if !reflect.DeepEqual(lines, tc.lines) {
			t.Errorf("for input %q expected %q, got %q", tc.input, tc.lines, lines)
		}
	}
}

type fakeRunner struct {
	name string
	args []string
	out  string
	err  error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.name = name
	f.args = args
	return []byte(f.out), f.err
}

func TestClientSacct(t *testing.T) {
	r := &fakeRunner{out: "JobID|State\n7|COMPLETED\n"}
	c := NewClient(r, "")
	lines, err := c.Sacct(context.Background(), Query{User: "bob", Start: "2024-01-01", Fields: testFields})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.name != "sacct" {
		t.Errorf("expected sacct to be run, got %v", r.name)
	}
	if !reflect.DeepEqual(lines, []string{"7|COMPLETED"}) {
		t.Errorf("unexpected lines %q", lines)
	}

	r = &fakeRunner{err: errors.New("boom")}
	c = NewClient(r, "/opt/slurm/bin/sacct")
	_, err = c.Sacct(context.Background(), Query{Fields: testFields})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected wrapped runner error, got %v", err)
	}
	if r.name != "/opt/slurm/bin/sacct" {
		t.Errorf("expected configured sacct path, got %v", r.name)
	}

	if _, err := c.Sacct(context.Background(), Query{}); err == nil {
		t.Errorf("expected error for query without fields")
	}
}

// TestHelperProcess is not a real test. It stands in for sacct when the exec
// runner re-executes the test binary.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) > 0 {
		args = args[1:]
	}
	if len(args) > 1 && args[1] == "--fail" {
		fmt.Fprint(os.Stderr, "sacct: error: bad option")
		os.Exit(1)
	}
	fmt.Printf("JobID|State\n%s|COMPLETED\n", strings.Join(args, " "))
	os.Exit(0)
}

func helperCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	return cmd
}

func TestExecRunner(t *testing.T) {
	r := NewExecRunner().WithCommand(helperCommand)
	out, err := r.Run(context.Background(), "sacct", "--parsable2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := SplitOutput(out)
	if !reflect.DeepEqual(lines, []string{"sacct --parsable2|COMPLETED"}) {
		t.Errorf("unexpected output %q", lines)
	}

	_, err = r.Run(context.Background(), "sacct", "--fail")
	if err == nil || !strings.Contains(err.Error(), "bad option") {
		t.Errorf("expected error with stderr, got %v", err)
	}
}

func TestIsAvailable(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", t.TempDir())
	sacct := filepath.Join(dir, "sacct")
	if err := os.WriteFile(sacct, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		path string
		want bool
	}{
		{path: "", want: false},
		{path: "sacct", want: false},
		{path: sacct, want: true},
		{path: filepath.Join(dir, "missing"), want: false},
	} {
		if got := IsAvailable(tc.path); got != tc.want {
			t.Errorf("IsAvailable(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
