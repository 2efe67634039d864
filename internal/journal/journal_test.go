package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fujiteam/fuji/internal/digest"
	"github.com/fujiteam/fuji/internal/report"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenAt(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleRun(n int) *report.Report {
	r := report.New(report.Parameters{
		Case:        "CASE" + string(rune('A'+n)),
		Examiner:    "Rivera",
		Notes:       "roundtrip",
		ImageName:   "Img",
		Source:      "/Volumes/Data",
		Destination: "/Volumes/Evidence",
	}, report.Method{Name: "Snapshot Mount"})
	r.StartTime = time.Date(2024, 5, 6, 9, 0, n, 0, time.UTC)
	r.EndTime = r.StartTime.Add(45 * time.Minute)
	r.HardwareInfo = "Model: Mac15,6\n"
	r.AddOutput("/Volumes/Evidence/copy")
	r.Result = &digest.HashedFile{
		Path:   "/images/snap.dmg",
		MD5:    "900150983cd24fb0d6963f7d28e17f72",
		SHA1:   "a9993e364706816aba3e25717850c26c9cd0d89d",
		SHA256: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
	}
	r.Success = true
	return r
}

func TestAppendAndList(t *testing.T) {
	j := newTestJournal(t)

	for i := 0; i < 3; i++ {
		_, err := j.Append(sampleRun(i))
		require.NoError(t, err)
	}

	entries, err := j.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, int64(3), entries[0].Seq)
	assert.Equal(t, "CASEC", entries[0].Case)
	assert.Equal(t, int64(1), entries[2].Seq)
	assert.Equal(t, "CASEA", entries[2].Case)

	// Fields survive the roundtrip.
	e := entries[2]
	assert.Equal(t, "Rivera", e.Examiner)
	assert.Equal(t, "Snapshot Mount", e.Method)
	assert.Equal(t, "/Volumes/Data", e.Source)
	assert.Equal(t, []string{"/Volumes/Evidence/copy"}, e.OutputFiles)
	assert.True(t, e.Success)
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", e.MD5)
	assert.True(t, e.StartTime.Equal(time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)))

	// Each entry links to its predecessor.
	assert.Equal(t, entries[2].RecordHash, entries[1].PrevHash)
	assert.Equal(t, entries[1].RecordHash, entries[0].PrevHash)

	// IDs are well-formed and unique.
	seen := map[string]bool{}
	for _, e := range entries {
		_, err := uuid.Parse(e.ID)
		assert.NoError(t, err)
		assert.False(t, seen[e.ID])
		seen[e.ID] = true
	}
}

func TestListLimit(t *testing.T) {
	j := newTestJournal(t)

	for i := 0; i < 5; i++ {
		_, err := j.Append(sampleRun(i))
		require.NoError(t, err)
	}

	entries, err := j.List(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(5), entries[0].Seq)
	assert.Equal(t, int64(4), entries[1].Seq)
}

func TestReportTextRoundtrip(t *testing.T) {
	j := newTestJournal(t)

	run := sampleRun(0)
	e, err := j.Append(run)
	require.NoError(t, err)

	text, err := j.ReportText(e.Seq)
	require.NoError(t, err)
	assert.Equal(t, report.Render(run), text)
}

func TestReportTextUnknownSeq(t *testing.T) {
	j := newTestJournal(t)

	_, err := j.ReportText(42)
	assert.ErrorContains(t, err, "no journal entry 42")
}

func TestVerifyIntactChain(t *testing.T) {
	j := newTestJournal(t)

	for i := 0; i < 4; i++ {
		_, err := j.Append(sampleRun(i))
		require.NoError(t, err)
	}

	count, err := j.Verify()
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestVerifyEmptyJournal(t *testing.T) {
	j := newTestJournal(t)

	count, err := j.Verify()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestVerifyDetectsFieldTamper(t *testing.T) {
	j := newTestJournal(t)

	for i := 0; i < 3; i++ {
		_, err := j.Append(sampleRun(i))
		require.NoError(t, err)
	}

	_, err := j.db.Exec("UPDATE runs SET examiner = 'intruder' WHERE seq = 2")
	require.NoError(t, err)

	count, err := j.Verify()
	require.Error(t, err)
	assert.ErrorContains(t, err, "entry 2: record hash mismatch")
	assert.Equal(t, 1, count)
}

func TestVerifyDetectsBlobCorruption(t *testing.T) {
	j := newTestJournal(t)

	_, err := j.Append(sampleRun(0))
	require.NoError(t, err)

	_, err = j.db.Exec("UPDATE runs SET report_zst = X'00' WHERE seq = 1")
	require.NoError(t, err)

	_, err = j.Verify()
	assert.ErrorContains(t, err, "entry 1: report blob corrupted")
}

func TestVerifyDetectsDeletedEntry(t *testing.T) {
	j := newTestJournal(t)

	for i := 0; i < 3; i++ {
		_, err := j.Append(sampleRun(i))
		require.NoError(t, err)
	}

	_, err := j.db.Exec("DELETE FROM runs WHERE seq = 2")
	require.NoError(t, err)

	_, err = j.Verify()
	require.Error(t, err)
	assert.ErrorContains(t, err, "entry 3: chain link broken")
}

func TestFailedRunStoresEmptyHashes(t *testing.T) {
	j := newTestJournal(t)

	run := sampleRun(0)
	run.Success = false
	run.Result = nil

	e, err := j.Append(run)
	require.NoError(t, err)
	assert.False(t, e.Success)
	assert.Empty(t, e.MD5)
	assert.Empty(t, e.SHA256)

	count, err := j.Verify()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
