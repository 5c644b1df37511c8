package daemon

import (
	"context"
	"time"

	"splice/internal/logging"
	"splice/internal/staging"
)

// runSweeper periodically reclaims job workspaces old enough to be crash
// leftovers. Active jobs are protected by the age threshold: no live merge
// runs anywhere near the configured max age.
func (d *Daemon) runSweeper(ctx context.Context) {
	defer close(d.sweepDone)

	interval := d.cfg.SweepInterval()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := staging.CleanStale(ctx, d.cfg.Paths.WorkspaceDir, d.cfg.StaleAge(), d.logger)
			if len(result.Removed) > 0 || len(result.Errors) > 0 {
				d.logger.Info("stale workspace sweep finished",
					logging.String(logging.FieldEventType, "sweep_complete"),
					logging.Int("removed", len(result.Removed)),
					logging.Int("errors", len(result.Errors)),
				)
			}
		}
	}
}
