package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Command describes one external tool invocation.
type Command struct {
	// Args is the full argv, program name first.
	Args []string
	// KeepAwake wraps the invocation so the host cannot idle-sleep while
	// the child runs. Imaging steps routinely outlast sleep timers.
	KeepAwake bool
	// TeeFile, when set, receives a copy of the accumulated output after
	// the child exits. Only honored by Stream.
	TeeFile string
}

// Result is the outcome of a completed child process. A nonzero exit is
// reported here, not as an error: callers judge exit codes per step.
type Result struct {
	ExitCode int
	Output   string
}

// Ok reports whether the child exited zero.
func (r Result) Ok() bool { return r.ExitCode == 0 }

// Runner executes external commands. Errors are reserved for failures to
// run the child at all (missing binary, fork failure); a child that runs
// and exits nonzero yields a nil error and the exit code in Result.
type Runner interface {
	// Run blocks until the child exits and returns its combined
	// stdout+stderr without echoing it anywhere.
	Run(ctx context.Context, cmd Command) (Result, error)
	// Stream echoes combined output to echo incrementally as it arrives,
	// accumulates the same bytes into Result.Output, and duplicates the
	// accumulated bytes to cmd.TeeFile at completion when set.
	Stream(ctx context.Context, cmd Command, echo io.Writer) (Result, error)
}

// DefaultAwakeWrapper is the argv prefix that holds the system awake for
// the duration of a child process.
var DefaultAwakeWrapper = []string{"caffeinate", "-dimsu"}

// ExecRunner runs commands via os/exec.
type ExecRunner struct {
	// AwakeWrapper is prepended to the argv of keep-awake commands.
	// Nil disables wrapping entirely.
	AwakeWrapper []string
}

// NewExecRunner returns an ExecRunner using DefaultAwakeWrapper.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{AwakeWrapper: DefaultAwakeWrapper}
}

func (r *ExecRunner) argv(cmd Command) []string {
	if !cmd.KeepAwake || len(r.AwakeWrapper) == 0 {
		return cmd.Args
	}
	argv := make([]string, 0, len(r.AwakeWrapper)+len(cmd.Args))
	argv = append(argv, r.AwakeWrapper...)
	return append(argv, cmd.Args...)
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	argv := r.argv(cmd)
	if len(argv) == 0 {
		return Result{ExitCode: -1}, errors.New("empty command")
	}

	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := c.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{ExitCode: exitErr.ExitCode(), Output: string(out)}, nil
		}
		return Result{ExitCode: -1}, fmt.Errorf("spawn %s: %w", argv[0], err)
	}
	return Result{Output: string(out)}, nil
}

func (r *ExecRunner) Stream(ctx context.Context, cmd Command, echo io.Writer) (Result, error) {
	argv := r.argv(cmd)
	if len(argv) == 0 {
		return Result{ExitCode: -1}, errors.New("empty command")
	}

	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	pipe, err := c.StdoutPipe()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("pipe %s: %w", argv[0], err)
	}
	c.Stderr = c.Stdout // merge the streams, mirroring what the operator sees

	if err := c.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("spawn %s: %w", argv[0], err)
	}

	if echo == nil {
		echo = io.Discard
	}
	var buf bytes.Buffer
	// Small copy buffer so output reaches the operator as the tool
	// produces it, not in bulk at exit.
	_, copyErr := io.CopyBuffer(io.MultiWriter(echo, &buf), pipe, make([]byte, 1024))

	res := Result{Output: buf.String()}
	if err := c.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, fmt.Errorf("wait %s: %w", argv[0], err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	if copyErr != nil && res.ExitCode == 0 {
		return res, fmt.Errorf("read %s output: %w", argv[0], copyErr)
	}

	if cmd.TeeFile != "" {
		if err := os.WriteFile(cmd.TeeFile, buf.Bytes(), 0o644); err != nil {
			return res, fmt.Errorf("write tee log: %w", err)
		}
	}
	return res, nil
}
