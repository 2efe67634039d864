// Package journal keeps a local, tamper-evident history of acquisitions.
//
// Every completed run is appended as a row whose BLAKE3 record hash
// covers the previous row's hash, so edits or deletions anywhere in the
// history break the chain. The full report text rides along as a
// zstd-compressed blob with an xxHash checksum.
package journal

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"

	"github.com/fujiteam/fuji/internal/report"
)

// chainSeed anchors the first entry's prev_hash.
const chainSeed = "fuji-journal-v1"

// fieldSep separates output file paths in storage and hashing.
const fieldSep = "\x1f"

// Entry is one acquisition run in the journal.
type Entry struct {
	Seq         int64
	ID          string
	Case        string
	Examiner    string
	Method      string
	Source      string
	Destination string
	StartTime   time.Time
	EndTime     time.Time
	Success     bool
	MD5         string
	SHA1        string
	SHA256      string
	OutputFiles []string
	PrevHash    string
	RecordHash  string
}

// Journal is a SQLite-backed append-only run history.
type Journal struct {
	db   *sql.DB
	path string
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// DefaultPath returns the journal location under the XDG data dir.
func DefaultPath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "fuji", "journal.db")
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "fuji", "journal.db")
}

// Open opens (or creates) the journal at DefaultPath.
func Open() (*Journal, error) {
	return OpenAt(DefaultPath())
}

// OpenAt opens (or creates) a journal database at the given path.
func OpenAt(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init compressor: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init decompressor: %w", err)
	}

	j := &Journal{db: db, path: path, enc: enc, dec: dec}
	if err := j.init(); err != nil {
		j.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) init() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			seq          INTEGER PRIMARY KEY AUTOINCREMENT,
			id           TEXT NOT NULL UNIQUE,
			case_name    TEXT NOT NULL,
			examiner     TEXT NOT NULL,
			method       TEXT NOT NULL,
			source       TEXT NOT NULL,
			destination  TEXT NOT NULL,
			start_time   INTEGER NOT NULL,
			end_time     INTEGER NOT NULL,
			success      INTEGER NOT NULL,
			md5          TEXT NOT NULL,
			sha1         TEXT NOT NULL,
			sha256       TEXT NOT NULL,
			output_files TEXT NOT NULL,
			report_zst   BLOB NOT NULL,
			report_sum   INTEGER NOT NULL,
			prev_hash    TEXT NOT NULL,
			record_hash  TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Path returns the journal database file path.
func (j *Journal) Path() string {
	return j.path
}

// Append records a finished run and returns the stored entry.
func (j *Journal) Append(r *report.Report) (Entry, error) {
	e := entryFromReport(r)
	blob := j.enc.EncodeAll([]byte(report.Render(r)), nil)
	blobSum := xxhash.Sum64(blob)

	tx, err := j.db.Begin()
	if err != nil {
		return Entry{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	prev := chainSeed
	row := tx.QueryRow("SELECT record_hash FROM runs ORDER BY seq DESC LIMIT 1")
	if err := row.Scan(&prev); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("read chain head: %w", err)
	}

	e.PrevHash = prev
	e.RecordHash = recordHash(prev, e, blobSum)

	res, err := tx.Exec(`
		INSERT INTO runs (
			id, case_name, examiner, method, source, destination,
			start_time, end_time, success, md5, sha1, sha256,
			output_files, report_zst, report_sum, prev_hash, record_hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Case, e.Examiner, e.Method, e.Source, e.Destination,
		e.StartTime.UnixNano(), e.EndTime.UnixNano(), boolInt(e.Success),
		e.MD5, e.SHA1, e.SHA256,
		strings.Join(e.OutputFiles, fieldSep), blob, int64(blobSum),
		e.PrevHash, e.RecordHash,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert run: %w", err)
	}
	if e.Seq, err = res.LastInsertId(); err != nil {
		return Entry{}, fmt.Errorf("read seq: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("commit: %w", err)
	}
	return e, nil
}

const entryColumns = `seq, id, case_name, examiner, method, source, destination,
	start_time, end_time, success, md5, sha1, sha256, output_files, prev_hash, record_hash`

// List returns entries newest first. A limit of 0 returns everything.
func (j *Journal) List(limit int) ([]Entry, error) {
	query := "SELECT " + entryColumns + " FROM runs ORDER BY seq DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReportText returns the archived report for a journal entry, verifying
// the blob checksum before decompressing.
func (j *Journal) ReportText(seq int64) (string, error) {
	var blob []byte
	var sum int64
	row := j.db.QueryRow("SELECT report_zst, report_sum FROM runs WHERE seq = ?", seq)
	if err := row.Scan(&blob, &sum); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("no journal entry %d", seq)
		}
		return "", fmt.Errorf("read entry %d: %w", seq, err)
	}

	if xxhash.Sum64(blob) != uint64(sum) {
		return "", fmt.Errorf("entry %d: report blob corrupted", seq)
	}
	text, err := j.dec.DecodeAll(blob, nil)
	if err != nil {
		return "", fmt.Errorf("entry %d: decompress report: %w", seq, err)
	}
	return string(text), nil
}

// Verify walks the whole chain and recomputes every record hash.
// It returns the number of intact entries and the first defect found.
func (j *Journal) Verify() (int, error) {
	rows, err := j.db.Query("SELECT " + entryColumns + ", report_zst, report_sum FROM runs ORDER BY seq ASC")
	if err != nil {
		return 0, fmt.Errorf("walk runs: %w", err)
	}
	defer rows.Close()

	prev := chainSeed
	count := 0
	for rows.Next() {
		var (
			e         Entry
			files     string
			start     int64
			end       int64
			success   int64
			blob      []byte
			storedSum int64
		)
		err := rows.Scan(
			&e.Seq, &e.ID, &e.Case, &e.Examiner, &e.Method, &e.Source, &e.Destination,
			&start, &end, &success, &e.MD5, &e.SHA1, &e.SHA256, &files,
			&e.PrevHash, &e.RecordHash, &blob, &storedSum,
		)
		if err != nil {
			return count, fmt.Errorf("scan run: %w", err)
		}
		e.StartTime = time.Unix(0, start)
		e.EndTime = time.Unix(0, end)
		e.Success = success != 0
		e.OutputFiles = splitFiles(files)

		if e.PrevHash != prev {
			return count, fmt.Errorf("entry %d: chain link broken", e.Seq)
		}
		if xxhash.Sum64(blob) != uint64(storedSum) {
			return count, fmt.Errorf("entry %d: report blob corrupted", e.Seq)
		}
		if recordHash(prev, e, uint64(storedSum)) != e.RecordHash {
			return count, fmt.Errorf("entry %d: record hash mismatch", e.Seq)
		}
		prev = e.RecordHash
		count++
	}
	return count, rows.Err()
}

// Close releases the database and compressor resources.
func (j *Journal) Close() error {
	if j.enc != nil {
		j.enc.Close()
	}
	if j.dec != nil {
		j.dec.Close()
	}
	return j.db.Close()
}

func entryFromReport(r *report.Report) Entry {
	e := Entry{
		ID:          uuid.New().String(),
		Case:        r.Parameters.Case,
		Examiner:    r.Parameters.Examiner,
		Method:      r.Method.Name,
		Source:      r.Parameters.Source,
		Destination: r.Parameters.Destination,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Success:     r.Success,
		OutputFiles: append([]string(nil), r.OutputFiles...),
	}
	if r.Result != nil {
		e.MD5, e.SHA1, e.SHA256 = r.Result.MD5, r.Result.SHA1, r.Result.SHA256
	}
	return e
}

// recordHash chains an entry to its predecessor. Fields are separated
// by NUL bytes so shifting content between fields changes the hash.
func recordHash(prev string, e Entry, blobSum uint64) string {
	h := blake3.New()
	io.WriteString(h, prev) //nolint:errcheck // hash writes cannot fail
	for _, field := range []string{
		e.ID, e.Case, e.Examiner, e.Method, e.Source, e.Destination,
		strconv.FormatInt(e.StartTime.UnixNano(), 10),
		strconv.FormatInt(e.EndTime.UnixNano(), 10),
		strconv.FormatBool(e.Success),
		e.MD5, e.SHA1, e.SHA256,
		strings.Join(e.OutputFiles, fieldSep),
		strconv.FormatUint(blobSum, 10),
	} {
		h.Write([]byte{0})
		io.WriteString(h, field) //nolint:errcheck // hash writes cannot fail
	}
	digest := h.Sum(nil)
	return hex.EncodeToString(digest)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e       Entry
		files   string
		start   int64
		end     int64
		success int64
	)
	err := row.Scan(
		&e.Seq, &e.ID, &e.Case, &e.Examiner, &e.Method, &e.Source, &e.Destination,
		&start, &end, &success, &e.MD5, &e.SHA1, &e.SHA256, &files,
		&e.PrevHash, &e.RecordHash,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("scan run: %w", err)
	}
	e.StartTime = time.Unix(0, start)
	e.EndTime = time.Unix(0, end)
	e.Success = success != 0
	e.OutputFiles = splitFiles(files)
	return e, nil
}

func splitFiles(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, fieldSep)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
