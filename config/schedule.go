package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// NextRun reports when the external scheduler is expected to start the next
// run. interval is either a standard cron expression or a Go duration. The
// value is informational; runs are never started from here.
func NextRun(interval string, from time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(interval); err == nil {
		if d <= 0 {
			return time.Time{}, fmt.Errorf("scrape interval must be positive, got %s", d)
		}
		return from.Add(d), nil
	}

	sched, err := cron.ParseStandard(interval)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid scrape interval %q: %w", interval, err)
	}
	return sched.Next(from), nil
}
