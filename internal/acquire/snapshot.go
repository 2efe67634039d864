package acquire

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fujiteam/fuji/internal/dialog"
	"github.com/fujiteam/fuji/internal/disk"
	"github.com/fujiteam/fuji/internal/image"
	"github.com/fujiteam/fuji/internal/report"
	"github.com/fujiteam/fuji/internal/sysinfo"
)

// snapshotImageTypes are the image extensions offered by the picker.
var snapshotImageTypes = []string{"dmg", "sparseimage", "sparsebundle"}

// SnapshotMount mounts an examiner-chosen snapshot image and clones its
// contents to a chosen destination. The snapshot image itself is the
// hashed artifact; the clone plus a ditto log land at the destination.
type SnapshotMount struct {
	Env *Env
}

var _ Strategy = (*SnapshotMount)(nil)

func (s *SnapshotMount) Info() report.Method {
	return report.Method{
		Name:        "Snapshot Mount",
		Description: "Mount an image containing a snapshot and copy its contents to a destination using ditto with clone flag",
	}
}

func (s *SnapshotMount) Execute(ctx context.Context, params report.Parameters) *report.Report {
	env := s.Env
	rep := report.New(params, s.Info())

	rep.HardwareInfo = sysinfo.Gather(ctx, env.Runner)

	details, err := env.Inspector.Describe(ctx, params.Source)
	if err != nil {
		slog.Error("inspect source", "path", params.Source, "error", err)
		env.Console.Fail("Cannot inspect %s: %v", params.Source, err)
		rep.EndTime = time.Now()
		return rep
	}
	rep.Details = &details

	env.Console.Step("Preparing to mount a snapshot image...\n")
	imagePath, err := env.Chooser.ChooseFile(ctx, "Select a snapshot image to mount:", snapshotImageTypes)
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			env.Console.Warn("No snapshot image was selected. Aborting.")
		} else {
			slog.Error("image selection", "error", err)
			env.Console.Fail("Error selecting image file: %v", err)
		}
		rep.EndTime = time.Now()
		return rep
	}

	env.Console.Step("Mounting image: %s", imagePath)
	att, err := env.Images.Attach(ctx, imagePath)
	if err != nil {
		slog.Error("attach snapshot image", "path", imagePath, "error", err)
		env.Console.Fail("Failed to mount the snapshot image. Aborting.")
		rep.EndTime = time.Now()
		return rep
	}
	env.Console.Step("Image mounted at: %s", att.MountPoint)

	env.Console.Step("Please select a destination for the copied files...")
	dest, err := env.Chooser.ChooseDir(ctx, "Select a destination folder for the copied files:")
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			env.Console.Warn("No destination was selected. Detaching mounted image and aborting.")
		} else {
			slog.Error("destination selection", "error", err)
			env.Console.Fail("Error selecting destination: %v", err)
		}
		s.detach(ctx, att)
		rep.EndTime = time.Now()
		return rep
	}

	copied := copyWithClone(ctx, env, att.MountPoint, dest, filepath.Join(dest, "ditto_copy.log"))

	if !s.detach(ctx, att) {
		env.Console.Warn("Failed to detach the mounted image. You may need to detach it manually.")
	}

	rep.Success = copied
	rep.EndTime = time.Now()
	if !copied {
		return rep
	}

	rep.AddOutput(dest)
	finalize(ctx, env, rep, imagePath)
	return rep
}

func (s *SnapshotMount) detach(ctx context.Context, att image.Attachment) bool {
	s.Env.Console.Step("Detaching image mounted at: %s", att.MountPoint)
	return s.Env.Detacher.Detach(ctx, att.Device, disk.DefaultSchedule)
}
