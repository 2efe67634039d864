package disk

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fujiteam/fuji/internal/proc"
)

// PathDetails describes the volume that owns a filesystem path.
type PathDetails struct {
	Path string
	// IsDisk reports whether Path is itself a mount boundary.
	IsDisk bool
	// Sectors is the owning filesystem's size in 512-byte sectors.
	Sectors int64
	// Device is the volume's device identifier as reported by the
	// platform volume-info tool. Empty when geometry is unknown.
	Device string
	// DeviceID is the OS device id of Path itself.
	DeviceID uint64
	// Info is the volume-info tool's full output, embedded verbatim in
	// the acquisition report.
	Info string
}

// Inspector resolves paths to their owning volume and its geometry.
type Inspector struct {
	runner proc.Runner

	// Filesystem primitives, replaceable in tests.
	statfs  func(path string) (blocks, bsize int64, err error)
	isMount func(path string) (bool, error)
	devID   func(path string) (uint64, error)
}

// NewInspector returns an Inspector backed by the real filesystem.
func NewInspector(runner proc.Runner) *Inspector {
	return &Inspector{
		runner:  runner,
		statfs:  fsGeometry,
		isMount: isMountPoint,
		devID:   deviceID,
	}
}

// Describe resolves symlinks in path and gathers the details of its
// owning volume. Geometry always reflects path itself; when path is not
// a mount boundary, the device identifier and description are copied
// from the nearest mounted ancestor.
func (in *Inspector) Describe(ctx context.Context, path string) (PathDetails, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return PathDetails{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	return in.describe(ctx, resolved)
}

func (in *Inspector) describe(ctx context.Context, path string) (PathDetails, error) {
	mounted, err := in.isMount(path)
	if err != nil {
		return PathDetails{}, fmt.Errorf("mount test %s: %w", path, err)
	}

	d := PathDetails{Path: path, IsDisk: mounted}

	blocks, bsize, err := in.statfs(path)
	if err != nil {
		return PathDetails{}, fmt.Errorf("statfs %s: %w", path, err)
	}
	d.Sectors = blocks * bsize / 512

	if mounted {
		res, err := in.runner.Run(ctx, proc.Command{
			Args:      []string{"diskutil", "info", path},
			KeepAwake: true,
		})
		if err != nil {
			return PathDetails{}, err
		}
		if res.Ok() {
			device, err := parseInfoDevice(res.Output)
			if err != nil {
				return PathDetails{}, err
			}
			d.Device = device
			d.Info = res.Output
		} else {
			// The tool does not recognize this mount; callers treat
			// the geometry as unknown.
			d.IsDisk = false
		}
	} else {
		ancestor, err := in.mountPointAbove(path)
		if err != nil {
			return PathDetails{}, err
		}
		owner, err := in.describe(ctx, ancestor)
		if err != nil {
			return PathDetails{}, err
		}
		d.Device = owner.Device
		d.Info = owner.Info
	}

	id, err := in.devID(path)
	if err != nil {
		return PathDetails{}, fmt.Errorf("stat %s: %w", path, err)
	}
	d.DeviceID = id

	return d, nil
}

// mountPointAbove walks the directory ancestry of path upward to the
// nearest mount boundary.
func (in *Inspector) mountPointAbove(path string) (string, error) {
	for {
		parent := filepath.Dir(path)
		if parent == path {
			// Filesystem root is always a mount boundary.
			return path, nil
		}
		path = parent

		mounted, err := in.isMount(path)
		if err != nil {
			return "", fmt.Errorf("mount test %s: %w", path, err)
		}
		if mounted {
			return path, nil
		}
	}
}

// parseInfoDevice extracts the device identifier from the volume-info
// tool's output: second line, "key: value" form, value trimmed.
func parseInfoDevice(output string) (string, error) {
	lines := strings.Split(output, "\n")
	if len(lines) < 2 {
		return "", fmt.Errorf("volume info too short: %q", output)
	}
	_, value, found := strings.Cut(lines[1], ":")
	if !found {
		return "", fmt.Errorf("unexpected volume info line: %q", lines[1])
	}
	return strings.TrimSpace(value), nil
}
