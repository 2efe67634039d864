package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fujiteam/fuji/internal/digest"
	"github.com/fujiteam/fuji/internal/disk"
	"github.com/fujiteam/fuji/internal/report"
)

func sampleReport(dest string) *report.Report {
	r := report.New(report.Parameters{
		Case:        "CASE1",
		Examiner:    "Rivera",
		Notes:       "locked device",
		ImageName:   "Evidence01",
		Source:      "/Volumes/Macintosh HD",
		Tmp:         "/Volumes/Fuji",
		Destination: dest,
	}, report.Method{Name: "Snapshot Mount", Description: "test"})

	r.StartTime = time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC)
	r.EndTime = time.Date(2024, 5, 6, 10, 15, 42, 0, time.UTC)
	r.HardwareInfo = "Model: Mac15,6\nChip: Apple M3\n"
	r.Details = &disk.PathDetails{
		Path:    "/Volumes/Macintosh HD",
		IsDisk:  true,
		Sectors: 1000,
		Device:  "/dev/disk3s1",
		Info:    "   Device Identifier:  disk3s1",
	}
	r.AddOutput("/out/copied")
	r.Result = &digest.HashedFile{
		Path:   "/images/snap.dmg",
		MD5:    "900150983cd24fb0d6963f7d28e17f72",
		SHA1:   "a9993e364706816aba3e25717850c26c9cd0d89d",
		SHA256: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
	}
	r.Success = true
	return r
}

func TestRender_FixedTemplate(t *testing.T) {
	t.Parallel()

	r := sampleReport("/dest")
	sep := strings.Repeat("-", 80)

	want := strings.Join([]string{
		"Fuji - Forensic Unattended Juicy Imaging",
		"Acquisition log",
		sep,
		"Case name: CASE1",
		"Examiner: Rivera",
		"Notes: locked device",
		sep,
		"Start time: 2024-05-06 09:30:00",
		"End time: 2024-05-06 10:15:42",
		"Source: /Volumes/Macintosh HD",
		"Acquisition method: Snapshot Mount",
		sep,
		"Model: Mac15,6\nChip: Apple M3\n",
		sep,
		"   Device Identifier:  disk3s1",
		sep,
		"Generated files:",
		"    - /out/copied",
		sep,
		"Computed hashes (/images/snap.dmg):",
		"    - MD5: 900150983cd24fb0d6963f7d28e17f72",
		"    - SHA1: a9993e364706816aba3e25717850c26c9cd0d89d",
		"    - SHA256: ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		"",
	}, "\n")

	assert.Equal(t, want, report.Render(r))
}

func TestRender_EmptySections(t *testing.T) {
	t.Parallel()

	r := report.New(report.Parameters{ImageName: "Img"}, report.Method{Name: "Full Image"})

	text := report.Render(r)
	assert.Contains(t, text, "Computed hashes ():")
	assert.Contains(t, text, "Generated files:\n"+strings.Repeat("-", 80))
	assert.Contains(t, text, "    - MD5: \n")
}

func TestWrite_CreatesAndOverwrites(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	r := sampleReport(dest)

	path, err := report.Write(r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "Evidence01", "Evidence01.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, report.Render(r), string(data))

	// A second write replaces the first.
	r.Parameters.Notes = "amended"
	r2 := *r
	path2, err := report.Write(&r2)
	require.NoError(t, err)
	assert.Equal(t, path, path2)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Notes: amended")
}

func TestOutputFilesPreserveInsertionOrder(t *testing.T) {
	t.Parallel()

	r := report.New(report.Parameters{ImageName: "Img"}, report.Method{Name: "Full Image"})
	r.AddOutput("/tmp/Img/Img.sparseimage")
	r.AddOutput("/dest/Img/Img.dmg")

	assert.Equal(t, []string{"/tmp/Img/Img.sparseimage", "/dest/Img/Img.dmg"}, r.OutputFiles)

	text := report.Render(r)
	first := strings.Index(text, "/tmp/Img/Img.sparseimage")
	second := strings.Index(text, "/dest/Img/Img.dmg")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
}
