package dialog

import (
	"context"
	"fmt"
	"strings"

	"github.com/fujiteam/fuji/internal/proc"
)

// Script drives the native macOS selection dialogs through osascript.
// Dialogs run without the keep-awake wrapper so a pending prompt never
// holds an idle assertion on the machine.
type Script struct {
	runner proc.Runner
}

var _ Chooser = (*Script)(nil)

// NewScript returns a Script that spawns osascript through runner.
func NewScript(runner proc.Runner) *Script {
	return &Script{runner: runner}
}

func (s *Script) ChooseFile(ctx context.Context, prompt string, extensions []string) (string, error) {
	types := make([]string, len(extensions))
	for i, ext := range extensions {
		types[i] = fmt.Sprintf("%q", ext)
	}
	script := fmt.Sprintf(`tell application "System Events"
	activate
	set theFile to choose file with prompt %q of type {%s}
	return POSIX path of theFile
end tell`, prompt, strings.Join(types, ", "))
	return s.ask(ctx, script)
}

func (s *Script) ChooseDir(ctx context.Context, prompt string) (string, error) {
	script := fmt.Sprintf(`tell application "System Events"
	activate
	set theFolder to choose folder with prompt %q
	return POSIX path of theFolder
end tell`, prompt)
	return s.ask(ctx, script)
}

// ask runs an AppleScript snippet and returns its trimmed output.
// osascript exits nonzero when the examiner dismisses the dialog.
func (s *Script) ask(ctx context.Context, script string) (string, error) {
	res, err := s.runner.Run(ctx, proc.Command{Args: []string{"osascript", "-e", script}})
	if err != nil {
		return "", fmt.Errorf("run selection dialog: %w", err)
	}
	if !res.Ok() {
		return "", ErrCancelled
	}
	path := strings.TrimSpace(res.Output)
	if path == "" {
		return "", ErrCancelled
	}
	return path, nil
}
