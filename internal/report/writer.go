package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const timeLayout = "2006-01-02 15:04:05"

var separator = strings.Repeat("-", 80)

// Path returns where the report file for params lives:
// <destination>/<image name>/<image name>.txt.
func Path(params Parameters) string {
	return filepath.Join(params.Destination, params.ImageName, params.ImageName+".txt")
}

// Render produces the report text: a fixed line sequence, one physical
// line per entry, sections separated by an 80-dash rule.
func Render(r *Report) string {
	var resultPath, resultMD5, resultSHA1, resultSHA256 string
	if r.Result != nil {
		resultPath = r.Result.Path
		resultMD5 = r.Result.MD5
		resultSHA1 = r.Result.SHA1
		resultSHA256 = r.Result.SHA256
	}
	var diskInfo string
	if r.Details != nil {
		diskInfo = r.Details.Info
	}

	lines := []string{
		"Fuji - Forensic Unattended Juicy Imaging",
		"Acquisition log",
		separator,
		"Case name: " + r.Parameters.Case,
		"Examiner: " + r.Parameters.Examiner,
		"Notes: " + r.Parameters.Notes,
		separator,
		"Start time: " + r.StartTime.Format(timeLayout),
		"End time: " + r.EndTime.Format(timeLayout),
		"Source: " + r.Parameters.Source,
		"Acquisition method: " + r.Method.Name,
		separator,
		r.HardwareInfo,
		separator,
		diskInfo,
		separator,
		"Generated files:",
	}
	for _, file := range r.OutputFiles {
		lines = append(lines, "    - "+file)
	}
	lines = append(lines,
		separator,
		fmt.Sprintf("Computed hashes (%s):", resultPath),
		"    - MD5: "+resultMD5,
		"    - SHA1: "+resultSHA1,
		"    - SHA256: "+resultSHA256,
	)

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Write renders r to its report path, overwriting any previous report,
// and returns that path.
func Write(r *Report) (string, error) {
	path := Path(r.Parameters)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Render(r)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
