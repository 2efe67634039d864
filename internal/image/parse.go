package image

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// volumeMarker identifies the attach output line that names the mounted
// volume's path.
const volumeMarker = "/Volumes"

var fieldSep = regexp.MustCompile(`\s+`)

// parseAttachedDevice returns the first whitespace-delimited token of the
// attach tool's output, the identifier of the attached device.
func parseAttachedDevice(output string) (string, error) {
	fields := strings.Fields(output)
	if len(fields) == 0 {
		return "", errors.New("attach produced no output")
	}
	return fields[0], nil
}

// parseMountPoint scans attach output for the line carrying the volume
// mount root and returns its third whitespace-delimited field. The field
// keeps any trailing spaces intact, so mount paths containing spaces
// survive.
func parseMountPoint(output string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, volumeMarker) {
			continue
		}
		fields := fieldSep.Split(strings.TrimSpace(line), 3)
		if len(fields) < 3 {
			return "", fmt.Errorf("unexpected attach line: %q", line)
		}
		return fields[2], nil
	}
	return "", errors.New("no mounted volume in attach output")
}
