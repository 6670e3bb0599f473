// Package command runs shell commands on behalf of tools, with working
// directory, timeout, and process-group cleanup.
package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

// Result is the observable outcome of one shell invocation. ExitCode is
// -1 when the process was killed or never produced an exit status.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Options bound one invocation. A zero Timeout means no deadline.
type Options struct {
	Dir     string
	Timeout time.Duration
}

// Run executes command via `sh -lc` with inherited environment. The
// child gets its own process group so a timeout kills the whole tree,
// not just the shell. A non-zero exit or a timeout is reported in
// Result, not as an error; the returned error means the command could
// not be run at all.
func Run(ctx context.Context, command string, opts Options) (Result, error) {
	execCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, "sh", "-lc", command)
	cmd.Dir = opts.Dir
	cmd.Env = os.Environ()
	var stdoutBuf bytes.Buffer
	var stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	setupProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = 5 * time.Second

	runErr := cmd.Run()

	res := Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		res.ExitCode = -1
		res.TimedOut = true
		return res, nil
	}
	if runErr == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	res.ExitCode = -1
	return res, runErr
}
