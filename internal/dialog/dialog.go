// Package dialog prompts the examiner to pick files and folders.
package dialog

import (
	"context"
	"errors"
)

// ErrCancelled reports that the examiner dismissed a prompt without
// making a selection.
var ErrCancelled = errors.New("selection cancelled")

// A Chooser asks the examiner to pick filesystem locations.
type Chooser interface {
	// ChooseFile prompts for an existing file limited to the given
	// extensions (without leading dots). It returns ErrCancelled when
	// the examiner dismisses the prompt.
	ChooseFile(ctx context.Context, prompt string, extensions []string) (string, error)

	// ChooseDir prompts for an existing directory. It returns
	// ErrCancelled when the examiner dismisses the prompt.
	ChooseDir(ctx context.Context, prompt string) (string, error)
}
