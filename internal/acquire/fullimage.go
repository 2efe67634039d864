package acquire

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/fujiteam/fuji/internal/disk"
	"github.com/fujiteam/fuji/internal/report"
	"github.com/fujiteam/fuji/internal/sysinfo"
)

// FullImage images the source volume through a temporary sparse image
// and converts it into a compressed read-only dmg at the destination.
type FullImage struct {
	Env *Env
}

var _ Strategy = (*FullImage)(nil)

func (f *FullImage) Info() report.Method {
	return report.Method{
		Name:        "Full Image",
		Description: "Copy the source volume into a temporary sparse image and convert it to a compressed dmg",
	}
}

func (f *FullImage) Execute(ctx context.Context, params report.Parameters) *report.Report {
	env := f.Env
	rep := report.New(params, f.Info())

	rep.HardwareInfo = sysinfo.Gather(ctx, env.Runner)

	details, err := env.Inspector.Describe(ctx, params.Source)
	if err != nil {
		slog.Error("inspect source", "path", params.Source, "error", err)
		env.Console.Fail("Cannot inspect %s: %v", params.Source, err)
		rep.EndTime = time.Now()
		return rep
	}
	rep.Details = &details

	workDir := filepath.Join(params.Tmp, params.ImageName)
	env.Console.Step("Creating a temporary image of %s (%s)...",
		params.Source, humanize.IBytes(uint64(details.Sectors)*512))

	att, err := env.Images.CreateAndAttach(ctx, details.Sectors, params.ImageName, workDir)
	if err != nil {
		slog.Error("create temporary image", "work_dir", workDir, "error", err)
		env.Console.Fail("Failed to create the temporary image. Aborting.")
		rep.EndTime = time.Now()
		return rep
	}
	rep.AddOutput(att.ImagePath)
	env.Console.Step("Temporary image mounted at: %s", att.MountPoint)

	copied := copyWithClone(ctx, env, params.Source, att.MountPoint,
		filepath.Join(workDir, "ditto_copy.log"))

	if !env.Detacher.Detach(ctx, att.Device, disk.DefaultSchedule) {
		env.Console.Warn("Failed to detach the temporary image. You may need to detach it manually.")
	}

	if !copied {
		rep.EndTime = time.Now()
		return rep
	}

	dmg := filepath.Join(params.Destination, params.ImageName, params.ImageName+".dmg")
	env.Console.Step("\nConverting %s -> %s", att.ImagePath, dmg)
	dmgPath, err := env.Images.Convert(ctx, att.ImagePath, params.ImageName, params.Destination)
	rep.EndTime = time.Now()
	if err != nil {
		slog.Error("convert temporary image", "path", att.ImagePath, "error", err)
		env.Console.Fail("Failed to convert the temporary image. Aborting.")
		return rep
	}
	rep.AddOutput(dmgPath)
	rep.Success = true

	finalize(ctx, env, rep, dmgPath)
	return rep
}
