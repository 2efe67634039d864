// Package acquire implements the acquisition strategies.
package acquire

import (
	"context"
	"log/slog"

	"github.com/fujiteam/fuji/internal/digest"
	"github.com/fujiteam/fuji/internal/dialog"
	"github.com/fujiteam/fuji/internal/disk"
	"github.com/fujiteam/fuji/internal/image"
	"github.com/fujiteam/fuji/internal/proc"
	"github.com/fujiteam/fuji/internal/report"
	"github.com/fujiteam/fuji/internal/ui"
)

// A Strategy acquires evidence from a source volume. Execute never
// returns an error: every outcome, including failure, is reflected in
// the returned report so the caller always has something to record.
type Strategy interface {
	Info() report.Method
	Execute(ctx context.Context, params report.Parameters) *report.Report
}

// An Inspector describes source volumes. *disk.Inspector satisfies it.
type Inspector interface {
	Describe(ctx context.Context, path string) (disk.PathDetails, error)
}

// Env bundles the collaborators a strategy needs. Tests swap in fakes.
type Env struct {
	Runner    proc.Runner
	Inspector Inspector
	Detacher  *disk.Detacher
	Images    *image.Manager
	Hasher    *digest.Engine
	Chooser   dialog.Chooser
	Console   *ui.Console
}

// NewEnv wires the production collaborators around a process runner.
func NewEnv(runner proc.Runner, chooser dialog.Chooser, console *ui.Console, hasher *digest.Engine) *Env {
	echo := console.Stream()
	return &Env{
		Runner:    runner,
		Inspector: disk.NewInspector(runner),
		Detacher:  disk.NewDetacher(runner, echo),
		Images:    image.NewManager(runner, echo),
		Hasher:    hasher,
		Chooser:   chooser,
		Console:   console,
	}
}

// Strategies returns the selectable acquisition strategies keyed by
// their command-line names.
func Strategies(env *Env) map[string]Strategy {
	return map[string]Strategy{
		"snapshot": &SnapshotMount{Env: env},
		"image":    &FullImage{Env: env},
	}
}

// StrategyNames lists the selectable strategy names in display order.
func StrategyNames() []string {
	return []string{"snapshot", "image"}
}

// copyWithClone clones src into dst with ditto, teeing tool output into
// a log file alongside the copy. It reports whether the copy succeeded.
func copyWithClone(ctx context.Context, env *Env, src, dst, logFile string) bool {
	env.Console.Step("Copying files from %s to %s using ditto with clone flag...", src, dst)

	res, err := env.Runner.Stream(ctx, proc.Command{
		Args:      []string{"ditto", "-c", "--keepParent", src, dst},
		KeepAwake: true,
		TeeFile:   logFile,
	}, env.Console.Stream())
	switch {
	case err != nil:
		slog.Error("ditto copy", "source", src, "error", err)
		env.Console.Fail("Failed to copy files: %v", err)
		return false
	case !res.Ok():
		slog.Error("ditto copy", "source", src, "exit_code", res.ExitCode)
		env.Console.Fail("Failed to copy files with error code %d", res.ExitCode)
		return false
	}

	env.Console.Step("Successfully copied files to %s", dst)
	env.Console.Step("Log file created at %s", logFile)
	return true
}

// finalize hashes the acquired artifact, records it as the report
// result, and writes the report file. Called only on successful runs;
// it downgrades the report to a failure when hashing or writing fails.
func finalize(ctx context.Context, env *Env, rep *report.Report, artifact string) {
	env.Console.Step("\nHashing %s", artifact)
	hashed, err := env.Hasher.Hash(ctx, artifact)
	if err != nil {
		slog.Error("hash artifact", "path", artifact, "error", err)
		env.Console.Fail("Failed to hash %s: %v", artifact, err)
		rep.Success = false
		return
	}
	rep.Result = &hashed

	env.Console.Step("\nWriting report file %s", report.Path(rep.Parameters))
	if _, err := report.Write(rep); err != nil {
		slog.Error("write report", "error", err)
		env.Console.Fail("Failed to write report: %v", err)
		rep.Success = false
		return
	}

	env.Console.Success("\nAcquisition completed!")
}
