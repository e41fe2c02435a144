package health

import (
	"context"
	"time"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage"
)

// Checker performs the relay's health checks against a live storage.Store.
type Checker struct {
	store   storage.Store
	backend string
}

// NewChecker builds a Checker. backend names the storage backend in use
// ("memory" or "postgres") for reporting purposes only.
func NewChecker(store storage.Store, backend string) *Checker {
	return &Checker{store: store, backend: backend}
}

// CheckAll runs every check and aggregates the worst status observed.
func (c *Checker) CheckAll(ctx context.Context) *Report {
	report := &Report{Timestamp: time.Now(), Status: StatusHealthy, Errors: make([]string, 0)}

	report.Storage = c.checkStorage(ctx)
	if report.Storage.Status != StatusHealthy {
		report.Status = report.Storage.Status
		if report.Storage.Error != "" {
			report.Errors = append(report.Errors, "storage: "+report.Storage.Error)
		}
	}

	report.System = checkSystem()
	if report.System.Status == StatusUnhealthy {
		report.Status = StatusUnhealthy
	} else if report.System.Status == StatusDegraded && report.Status == StatusHealthy {
		report.Status = StatusDegraded
	}

	return report
}

func (c *Checker) checkStorage(ctx context.Context) *StorageHealth {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.store.Ping(ctx); err != nil {
		return &StorageHealth{Status: StatusUnhealthy, Connected: false, Backend: c.backend, Error: err.Error()}
	}
	return &StorageHealth{Status: StatusHealthy, Connected: true, Backend: c.backend, Latency: time.Since(start).String()}
}
