// Package ui renders operator-facing output for acquisitions.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/fujiteam/fuji/internal/digest"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed, color.Bold)
)

// Console writes the interactive narrative of an acquisition. Log
// records go through slog; the console is only for the examiner at the
// keyboard.
type Console struct {
	Out   io.Writer
	Err   io.Writer
	Quiet bool // suppress steps and tool output, keep warnings and failures
}

// NewConsole returns a Console bound to stdout and stderr.
func NewConsole(quiet bool) *Console {
	return &Console{Out: os.Stdout, Err: os.Stderr, Quiet: quiet}
}

// Step reports normal progress.
func (c *Console) Step(format string, args ...any) {
	if c.Quiet {
		return
	}
	fmt.Fprintf(c.Out, format+"\n", args...)
}

// Success reports a completed acquisition.
func (c *Console) Success(format string, args ...any) {
	if c.Quiet {
		return
	}
	successColor.Fprintf(c.Out, format+"\n", args...)
}

// Warn reports a non-fatal problem. Warnings are never suppressed.
func (c *Console) Warn(format string, args ...any) {
	warnColor.Fprintf(c.Err, format+"\n", args...)
}

// Fail reports a fatal problem. Failures are never suppressed.
func (c *Console) Fail(format string, args ...any) {
	failColor.Fprintf(c.Err, format+"\n", args...)
}

// Stream returns the writer external tool output is echoed to.
func (c *Console) Stream() io.Writer {
	if c.Quiet {
		return io.Discard
	}
	return c.Out
}

// HashProgress returns a progress sink that renders percent markers
// as hashing advances, breaking the line after every multiple of 20.
func (c *Console) HashProgress() digest.Progress {
	return &hashProgress{w: c.Stream()}
}

type hashProgress struct {
	w io.Writer
}

func (p *hashProgress) Percent(pct int) {
	fmt.Fprintf(p.w, "%d%% ", pct)
	if pct%20 == 0 {
		fmt.Fprintln(p.w)
	}
}

func (p *hashProgress) Done() {
	fmt.Fprintln(p.w)
}

// IsTTY reports whether the given file descriptor refers to a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}
