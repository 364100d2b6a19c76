package preflight

import (
	"fmt"
	"syscall"
)

// MinFileDescriptors is the minimum open-file limit. Create holds one blob
// and one temp file per field worker plus the catalog and lock.
const MinFileDescriptors = 256

// CheckFileDescriptors checks the process open-file limit.
func (c *Checker) CheckFileDescriptors() CheckResult {
	result := CheckResult{
		Name:     "file_descriptors",
		Required: false,
	}

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to check file descriptor limit: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("%d (minimum: %d)", rLimit.Cur, MinFileDescriptors)
	if rLimit.Cur < MinFileDescriptors {
		result.Status = StatusWarn
		result.Details = "Run 'ulimit -n 1024' or lower performance.workers"
		return result
	}
	result.Status = StatusPass
	return result
}
