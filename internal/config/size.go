package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// sizeUnits maps a suffix letter to its power-of-1024 multiplier.
var sizeUnits = map[byte]int64{
	'B': 1,
	'K': 1 << 10,
	'M': 1 << 20,
	'G': 1 << 30,
	'T': 1 << 40,
}

// ParseSize converts a human-readable size such as "100", "64K", or
// "1.5G" into a byte count for the bwlimit option. Suffixes follow
// rsync: a single letter, case-insensitive, powers of 1024.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty size")
	}

	unit := int64(1)
	num := s
	last := s[len(s)-1]
	if last >= 'a' && last <= 'z' {
		last -= 'a' - 'A'
	}
	if m, ok := sizeUnits[last]; ok {
		unit = m
		num = s[:len(s)-1]
	}
	if num == "" {
		return 0, fmt.Errorf("invalid size %q", s)
	}

	// Integers parse exactly; values like "1.5G" fall back to float.
	if n, err := strconv.ParseInt(num, 10, 64); err == nil {
		return n * unit, nil
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return int64(f * float64(unit)), nil
}
