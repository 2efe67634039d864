package dialog_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fujiteam/fuji/internal/dialog"
	"github.com/fujiteam/fuji/internal/proc"
)

type stubRunner struct {
	run   func(cmd proc.Command) (proc.Result, error)
	calls []proc.Command
}

func (s *stubRunner) Run(_ context.Context, cmd proc.Command) (proc.Result, error) {
	s.calls = append(s.calls, cmd)
	return s.run(cmd)
}

func (s *stubRunner) Stream(ctx context.Context, cmd proc.Command, _ io.Writer) (proc.Result, error) {
	return s.Run(ctx, cmd)
}

func TestScriptChooseFile(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{run: func(proc.Command) (proc.Result, error) {
		return proc.Result{Output: "/Users/kim/Images/snap.dmg\n"}, nil
	}}
	chooser := dialog.NewScript(runner)

	path, err := chooser.ChooseFile(context.Background(),
		"Select a snapshot image to mount:", []string{"dmg", "sparseimage", "sparsebundle"})
	require.NoError(t, err)
	assert.Equal(t, "/Users/kim/Images/snap.dmg", path)

	require.Len(t, runner.calls, 1)
	cmd := runner.calls[0]
	require.Len(t, cmd.Args, 3)
	assert.Equal(t, "osascript", cmd.Args[0])
	assert.Equal(t, "-e", cmd.Args[1])
	assert.Contains(t, cmd.Args[2],
		`choose file with prompt "Select a snapshot image to mount:" of type {"dmg", "sparseimage", "sparsebundle"}`)
	assert.Contains(t, cmd.Args[2], "POSIX path of theFile")
	assert.False(t, cmd.KeepAwake, "dialogs must not hold an idle assertion")
}

func TestScriptChooseDir(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{run: func(proc.Command) (proc.Result, error) {
		return proc.Result{Output: "/Users/kim/Desktop/Evidence/\n"}, nil
	}}
	chooser := dialog.NewScript(runner)

	path, err := chooser.ChooseDir(context.Background(), "Select a destination folder for the copied files:")
	require.NoError(t, err)
	assert.Equal(t, "/Users/kim/Desktop/Evidence/", path, "POSIX folder paths keep their trailing slash")

	require.Len(t, runner.calls, 1)
	assert.Contains(t, runner.calls[0].Args[2],
		`choose folder with prompt "Select a destination folder for the copied files:"`)
	assert.Contains(t, runner.calls[0].Args[2], "POSIX path of theFolder")
}

func TestScriptCancelled(t *testing.T) {
	t.Parallel()

	tests := map[string]proc.Result{
		"dismissed dialog exits nonzero": {ExitCode: 1, Output: "execution error: User canceled. (-128)"},
		"empty output":                   {Output: "\n"},
	}
	for name, res := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			runner := &stubRunner{run: func(proc.Command) (proc.Result, error) {
				return res, nil
			}}
			chooser := dialog.NewScript(runner)

			_, err := chooser.ChooseFile(context.Background(), "pick", []string{"dmg"})
			assert.ErrorIs(t, err, dialog.ErrCancelled)
		})
	}
}

func TestScriptSpawnFailure(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{run: func(proc.Command) (proc.Result, error) {
		return proc.Result{}, errors.New("exec: \"osascript\": executable file not found in $PATH")
	}}
	chooser := dialog.NewScript(runner)

	_, err := chooser.ChooseDir(context.Background(), "pick")
	require.Error(t, err)
	assert.NotErrorIs(t, err, dialog.ErrCancelled)
}
