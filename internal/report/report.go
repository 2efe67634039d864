// Package report carries the audit record of one acquisition and renders
// it as a fixed-format plain-text log.
package report

import (
	"time"

	"github.com/fujiteam/fuji/internal/digest"
	"github.com/fujiteam/fuji/internal/disk"
)

// Parameters identifies one acquisition run. Immutable once built by the
// caller; strategies never modify it.
type Parameters struct {
	Case        string
	Examiner    string
	Notes       string
	ImageName   string
	Source      string
	Tmp         string
	Destination string
}

// Method is a strategy's display identity.
type Method struct {
	Name        string
	Description string
}

// Report accumulates the outcome of one acquisition. A strategy creates
// it at entry with Success false and fills fields in as steps complete;
// it is returned unconditionally and treated as immutable afterward.
type Report struct {
	Parameters   Parameters
	Method       Method
	StartTime    time.Time
	EndTime      time.Time
	Details      *disk.PathDetails
	HardwareInfo string
	Success      bool
	// OutputFiles lists produced artifacts in creation order, append-only.
	OutputFiles []string
	// Result holds the digests of the acquisition's final artifact.
	// Success must never be true without it.
	Result *digest.HashedFile
}

// New starts a Report for the given run, stamping the start time.
func New(params Parameters, method Method) *Report {
	return &Report{
		Parameters: params,
		Method:     method,
		StartTime:  time.Now(),
	}
}

// AddOutput appends an artifact path, preserving creation order.
func (r *Report) AddOutput(path string) {
	r.OutputFiles = append(r.OutputFiles, path)
}
