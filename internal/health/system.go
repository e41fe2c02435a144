package health

import "runtime"

const (
	memoryThresholdHealthy  = 70.0
	memoryThresholdDegraded = 85.0
)

// checkSystem samples process memory and goroutine counts, grounded on the
// teacher's CheckSystem (minus the disk-usage check, which has no relay
// analogue since the relay's storage lives in the database, not on disk).
func checkSystem() *SystemHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	h := &SystemHealth{
		Status:        StatusHealthy,
		MemoryUsedMB:  m.Alloc / 1024 / 1024,
		MemoryTotalMB: m.Sys / 1024 / 1024,
		GoRoutines:    runtime.NumGoroutine(),
	}
	if h.MemoryTotalMB > 0 {
		h.MemoryPercent = float64(h.MemoryUsedMB) / float64(h.MemoryTotalMB) * 100
	}

	switch {
	case h.MemoryPercent >= memoryThresholdDegraded:
		h.Status = StatusUnhealthy
	case h.MemoryPercent >= memoryThresholdHealthy:
		h.Status = StatusDegraded
	}
	return h
}
