// Package backend wraps the external model-checker executable (verifyta),
// grounded on backend/interface/verifyta.py's execute_command/
// execute_verifyta pair: spawn a subprocess, enforce a timeout by killing
// it, and log elapsed wall-clock time.
package backend

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tamatch/tamatch/internal/xerrors"
)

// successMarker is the verifyta stdout substring that marks query success.
const successMarker = "-- Formula is satisfied."

// Runner invokes the verifyta binary against model/query files.
type Runner struct {
	VerifytaPath string
	Timeout      time.Duration
	ExtraArgs    []string
	Logf         func(format string, args ...interface{}) // nil disables logging
}

// Result is the outcome of one verifyta invocation.
type Result struct {
	Output      string
	IsTimeout   bool
	IsSatisfied bool
	Elapsed     time.Duration
}

func (r *Runner) log(format string, args ...interface{}) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}

// Execute runs verifyta against modelPath (and, if non-empty, queryPath),
// returning the combined stdout and whether the run hit the configured
// timeout. A context.Context lets callers cancel a run already in flight;
// a positive Runner.Timeout is always layered on top of ctx via
// context.WithTimeout, so whichever deadline comes first ends the run.
func (r *Runner) Execute(ctx context.Context, modelPath, queryPath string) (*Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := append([]string{}, r.ExtraArgs...)
	args = append(args, modelPath)
	if queryPath != "" {
		args = append(args, queryPath)
	}

	what := filepath.Base(modelPath)
	if queryPath != "" {
		what = fmt.Sprintf("%s against %s", filepath.Base(queryPath), what)
	}
	r.log("executing %s with verifyta ...", what)

	start := time.Now()
	cmd := exec.CommandContext(ctx, r.VerifytaPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	elapsed := time.Since(start)

	isTimeout := ctx.Err() == context.DeadlineExceeded
	out := stdout.String()

	if stderr.Len() > 0 {
		r.log("verifyta stderr:\n%s", stderr.String())
	}
	if isTimeout {
		r.log("executing %s with verifyta ... timed out after %s", what, humanize.Time(start))
		return &Result{Output: out, IsTimeout: true, Elapsed: elapsed}, nil
	}
	if runErr != nil {
		return nil, &xerrors.BackendError{Kind: xerrors.BackendLaunchFailed, Details: runErr.Error()}
	}

	r.log("executing %s with verifyta ... finished [elapsed: %s]", what, humanize.RelTime(start, time.Now(), "", ""))
	return &Result{
		Output:      out,
		IsTimeout:   false,
		IsSatisfied: strings.Contains(out, successMarker),
		Elapsed:     elapsed,
	}, nil
}

// WriteModelFile writes content to dir/name, creating dir if needed.
func WriteModelFile(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &xerrors.IOError{Path: dir, Err: err}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", &xerrors.IOError{Path: path, Err: err}
	}
	return path, nil
}
