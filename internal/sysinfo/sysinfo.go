// Package sysinfo captures a hardware description of the acquisition host.
package sysinfo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/fujiteam/fuji/internal/proc"
)

// profilerCommand reports the hardware overview on macOS hosts.
var profilerCommand = []string{"system_profiler", "SPHardwareDataType"}

// Gather returns a human-readable hardware summary for the acquisition
// report. It prefers the platform profiler output and falls back to a
// short host/memory summary when the profiler is unavailable. Gather
// never fails; at worst it returns a placeholder line.
func Gather(ctx context.Context, runner proc.Runner) string {
	res, err := runner.Run(ctx, proc.Command{Args: profilerCommand, KeepAwake: true})
	if err == nil && res.Ok() && strings.TrimSpace(res.Output) != "" {
		return res.Output
	}
	if err != nil {
		slog.Debug("hardware profiler unavailable", "error", err)
	} else {
		slog.Debug("hardware profiler failed", "exit_code", res.ExitCode)
	}
	return fallback(ctx)
}

func fallback(ctx context.Context) string {
	var b strings.Builder
	if info, err := host.InfoWithContext(ctx); err == nil {
		fmt.Fprintf(&b, "Hostname: %s\n", info.Hostname)
		fmt.Fprintf(&b, "OS: %s %s (%s)\n", info.Platform, info.PlatformVersion, info.KernelArch)
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		fmt.Fprintf(&b, "Memory: %s\n", humanize.IBytes(vm.Total))
	}
	if b.Len() == 0 {
		return "Hardware information unavailable\n"
	}
	return b.String()
}
