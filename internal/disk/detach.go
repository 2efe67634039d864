package disk

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fujiteam/fuji/internal/proc"
)

// Schedule bounds the retry behavior of a detach.
type Schedule struct {
	// Delay is waited before the first attempt, letting in-flight I/O
	// and open handles settle.
	Delay time.Duration
	// Interval is waited between attempts.
	Interval time.Duration
	// MaxAttempts is the total number of attempts.
	MaxAttempts int
}

// DefaultSchedule is the detach schedule used by acquisitions.
var DefaultSchedule = Schedule{
	Delay:       30 * time.Second,
	Interval:    10 * time.Second,
	MaxAttempts: 3,
}

// Detacher releases mounted volumes with bounded retries. Detach is the
// only retrying operation in an acquisition; everything else is
// attempt-once.
type Detacher struct {
	runner proc.Runner
	echo   io.Writer

	// Sleep delays between attempts; replaceable in tests.
	Sleep func(time.Duration)
}

// NewDetacher returns a Detacher that streams detach tool output to echo.
func NewDetacher(runner proc.Runner, echo io.Writer) *Detacher {
	return &Detacher{runner: runner, echo: echo, Sleep: time.Sleep}
}

// Detach releases volume, retrying per s. Returns false when every
// attempt failed; callers downgrade that to an operator warning.
func (d *Detacher) Detach(ctx context.Context, volume string, s Schedule) bool {
	d.Sleep(s.Delay)

	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		if attempt > 1 {
			d.Sleep(s.Interval)
		}

		res, err := d.runner.Stream(ctx, proc.Command{
			Args:      []string{"hdiutil", "detach", volume},
			KeepAwake: true,
		}, d.echo)
		if err != nil {
			slog.Debug("detach attempt failed", "volume", volume, "attempt", attempt, "error", err)
			continue
		}
		if res.Ok() {
			return true
		}
		slog.Debug("detach attempt failed",
			"volume", volume, "attempt", attempt, "exit_code", res.ExitCode)
	}
	return false
}
