package image

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fujiteam/fuji/internal/proc"
)

// toolRunner answers by the tool subcommand (create/attach/convert) and
// records every call.
type toolRunner struct {
	results map[string]proc.Result
	calls   []proc.Command
}

func (r *toolRunner) answer(cmd proc.Command) (proc.Result, error) {
	r.calls = append(r.calls, cmd)
	return r.results[cmd.Args[1]], nil
}

func (r *toolRunner) Run(_ context.Context, cmd proc.Command) (proc.Result, error) {
	return r.answer(cmd)
}

func (r *toolRunner) Stream(_ context.Context, cmd proc.Command, echo io.Writer) (proc.Result, error) {
	res, err := r.answer(cmd)
	if echo != nil {
		_, _ = io.WriteString(echo, res.Output)
	}
	return res, err
}

func TestCreateAndAttach(t *testing.T) {
	t.Parallel()

	workDir := filepath.Join(t.TempDir(), "work", "Case01")
	runner := &toolRunner{results: map[string]proc.Result{
		"create": {Output: "created: ok\n"},
		"attach": {Output: attachOutput},
	}}
	m := NewManager(runner, nil)

	att, err := m.CreateAndAttach(context.Background(), 2048, "Case01", workDir)
	require.NoError(t, err)

	imagePath := filepath.Join(workDir, "Case01.sparseimage")
	assert.Equal(t, imagePath, att.ImagePath)
	assert.Equal(t, "/dev/disk4", att.Device)
	assert.Equal(t, "/Volumes/Evidence", att.MountPoint)

	// The working area was created.
	info, err := os.Stat(workDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{
		"hdiutil", "create", "-sectors", "2048", "-volname", "Case01", imagePath,
	}, runner.calls[0].Args)
	assert.True(t, runner.calls[0].KeepAwake)
	assert.Equal(t, []string{"hdiutil", "attach", imagePath}, runner.calls[1].Args)
}

func TestCreateAndAttach_CreateFailureAttachesNothing(t *testing.T) {
	t.Parallel()

	runner := &toolRunner{results: map[string]proc.Result{
		"create": {ExitCode: 1, Output: "hdiutil: create failed\n"},
	}}
	m := NewManager(runner, nil)

	_, err := m.CreateAndAttach(context.Background(), 100, "Img", t.TempDir())
	assert.Error(t, err)
	assert.Len(t, runner.calls, 1)
}

func TestAttach_UnparseableOutput(t *testing.T) {
	t.Parallel()

	runner := &toolRunner{results: map[string]proc.Result{
		"attach": {Output: "/dev/disk4\tGUID_partition_scheme\n"},
	}}
	m := NewManager(runner, nil)

	_, err := m.Attach(context.Background(), "/tmp/x.sparseimage")
	assert.Error(t, err)
}

func TestAttach_NonzeroExit(t *testing.T) {
	t.Parallel()

	runner := &toolRunner{results: map[string]proc.Result{
		"attach": {ExitCode: 1, Output: "hdiutil: attach failed\n"},
	}}
	m := NewManager(runner, nil)

	_, err := m.Attach(context.Background(), "/tmp/x.sparseimage")
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	runner := &toolRunner{results: map[string]proc.Result{
		"convert": {Output: "created: out.dmg\n"},
	}}
	m := NewManager(runner, nil)

	out, err := m.Convert(context.Background(), "/work/Img.sparseimage", "Img", dest)
	require.NoError(t, err)

	want := filepath.Join(dest, "Img", "Img.dmg")
	assert.Equal(t, want, out)

	info, err := os.Stat(filepath.Join(dest, "Img"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{
		"hdiutil", "convert", "/work/Img.sparseimage", "-format", "UDZO", "-o", want,
	}, runner.calls[0].Args)
}

func TestConvert_NonzeroExit(t *testing.T) {
	t.Parallel()

	runner := &toolRunner{results: map[string]proc.Result{
		"convert": {ExitCode: 1},
	}}
	m := NewManager(runner, nil)

	_, err := m.Convert(context.Background(), "/work/Img.sparseimage", "Img", t.TempDir())
	assert.Error(t, err)
}
