// Package image manages the disk-image lifecycle of an acquisition:
// creating a growable container sized to the source, attaching it as a
// writable volume, and finalizing it into a compressed read-only image.
package image

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fujiteam/fuji/internal/proc"
)

// Attachment is an image attached as a volume.
type Attachment struct {
	// ImagePath is the backing image file.
	ImagePath string
	// Device is the attached device identifier, the handle a detach takes.
	Device string
	// MountPoint is where the volume's contents are reachable.
	MountPoint string
}

// Manager drives the platform image tool. Tool output is streamed to
// echo so the operator can watch long create/convert runs.
type Manager struct {
	runner proc.Runner
	echo   io.Writer
}

// NewManager returns a Manager streaming tool output to echo.
func NewManager(runner proc.Runner, echo io.Writer) *Manager {
	return &Manager{runner: runner, echo: echo}
}

// CreateAndAttach creates a sparse image under workDir sized to the given
// sector count, then attaches it. Nothing is attached when the create
// step fails.
func (m *Manager) CreateAndAttach(
	ctx context.Context,
	sectors int64,
	imageName, workDir string,
) (Attachment, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Attachment{}, fmt.Errorf("create working area: %w", err)
	}
	imagePath := filepath.Join(workDir, imageName+".sparseimage")

	res, err := m.runner.Stream(ctx, proc.Command{
		Args: []string{
			"hdiutil", "create",
			"-sectors", strconv.FormatInt(sectors, 10),
			"-volname", imageName,
			imagePath,
		},
		KeepAwake: true,
	}, m.echo)
	if err != nil {
		return Attachment{}, err
	}
	if !res.Ok() {
		return Attachment{}, fmt.Errorf("create image %s: exit code %d", imagePath, res.ExitCode)
	}

	return m.Attach(ctx, imagePath)
}

// Attach mounts imagePath and parses the attached device and mount point
// from the tool output.
func (m *Manager) Attach(ctx context.Context, imagePath string) (Attachment, error) {
	res, err := m.runner.Stream(ctx, proc.Command{
		Args:      []string{"hdiutil", "attach", imagePath},
		KeepAwake: true,
	}, m.echo)
	if err != nil {
		return Attachment{}, err
	}
	if !res.Ok() {
		return Attachment{}, fmt.Errorf("attach %s: exit code %d", imagePath, res.ExitCode)
	}

	device, err := parseAttachedDevice(res.Output)
	if err != nil {
		return Attachment{}, err
	}
	mountPoint, err := parseMountPoint(res.Output)
	if err != nil {
		return Attachment{}, err
	}

	return Attachment{ImagePath: imagePath, Device: device, MountPoint: mountPoint}, nil
}

// Convert finalizes imagePath into a compressed read-only image at
// <destDir>/<imageName>/<imageName>.dmg and returns that path.
func (m *Manager) Convert(
	ctx context.Context,
	imagePath, imageName, destDir string,
) (string, error) {
	outDir := filepath.Join(destDir, imageName)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	outPath := filepath.Join(outDir, imageName+".dmg")

	res, err := m.runner.Stream(ctx, proc.Command{
		Args:      []string{"hdiutil", "convert", imagePath, "-format", "UDZO", "-o", outPath},
		KeepAwake: true,
	}, m.echo)
	if err != nil {
		return "", err
	}
	if !res.Ok() {
		return "", fmt.Errorf("convert %s: exit code %d", imagePath, res.ExitCode)
	}
	return outPath, nil
}
