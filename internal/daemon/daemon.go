package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"splice/internal/api"
	"splice/internal/config"
	"splice/internal/history"
	"splice/internal/logging"
	"splice/internal/media/ffmpeg"
	"splice/internal/media/ffprobe"
	"splice/internal/merge"
	"splice/internal/preflight"
	"splice/internal/server"
	"splice/internal/staging"
)

// Daemon coordinates the merge service and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	journal *history.Store
	area    *staging.Area
	server  *server.Server

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	cancel    context.CancelFunc
	sweepDone chan struct{}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, journal *history.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || journal == nil || logger == nil {
		return nil, errors.New("daemon requires config, journal, and logger")
	}

	area, err := staging.NewArea(cfg.Paths.WorkspaceDir, logger)
	if err != nil {
		return nil, fmt.Errorf("init staging area: %w", err)
	}

	merger, err := ffmpeg.New(cfg.FFmpegBinary(), cfg.FFmpeg.Preset, cfg.MergeTimeout(), logger)
	if err != nil {
		return nil, fmt.Errorf("init merge client: %w", err)
	}

	probe := func(ctx context.Context, path string) (float64, error) {
		result, err := ffprobe.Inspect(ctx, cfg.FFprobeBinary(), path)
		if err != nil {
			return 0, err
		}
		return result.DurationSeconds(), nil
	}

	pipeline, err := merge.NewPipeline(area, merger, logger,
		merge.WithJournal(journal),
		merge.WithProber(probe),
	)
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		journal:  journal,
		area:     area,
		lockPath: filepath.Join(cfg.Paths.LogDir, "spliced.lock"),
	}
	d.lock = flock.New(d.lockPath)

	srv, err := server.New(cfg, pipeline, journal, d.Status, logger)
	if err != nil {
		return nil, fmt.Errorf("init api server: %w", err)
	}
	d.server = srv
	return d, nil
}

// Start acquires the daemon lock, reclaims orphaned workspaces, and brings
// the API server up. The ingress only becomes ready once the workspace
// exists and the lock is held.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another splice daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.logDependencySnapshot(runCtx)

	// Nothing is active yet: anything in the workspace is a crash leftover.
	reclaimed := staging.CleanOrphaned(runCtx, d.cfg.Paths.WorkspaceDir, nil, d.logger)
	if len(reclaimed.Removed) > 0 {
		d.logger.Info("reclaimed orphaned workspaces",
			logging.Int("count", len(reclaimed.Removed)),
		)
	}

	if err := d.server.Start(runCtx); err != nil {
		cancel()
		d.cancel = nil
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}

	d.sweepDone = make(chan struct{})
	go d.runSweeper(runCtx)

	d.running.Store(true)
	d.logger.Info("splice daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.server.Addr()),
	)
	return nil
}

// Stop shuts the server down, stops the sweeper, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.Stop()
	if d.sweepDone != nil {
		<-d.sweepDone
		d.sweepDone = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("splice daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.journal != nil {
		return d.journal.Close()
	}
	return nil
}

// Addr returns the API server's bound address, or empty before Start.
func (d *Daemon) Addr() string {
	if d == nil || d.server == nil {
		return ""
	}
	return d.server.Addr()
}

// Status returns the current daemon status for the API and the CLI.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		WorkspaceDir: d.cfg.Paths.WorkspaceDir,
		DatabasePath: d.journal.Path(),
		LockFilePath: d.lockPath,
	}

	if dirs, err := staging.ListDirectories(d.cfg.Paths.WorkspaceDir); err == nil {
		status.ActiveWorkspaces = len(dirs)
		for _, dir := range dirs {
			status.WorkspaceBytes += dir.Size
		}
	}

	for _, dep := range preflight.CheckSystemDeps(ctx, d.cfg) {
		status.Dependencies = append(status.Dependencies, api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}

	counts, err := d.journal.Stats(ctx)
	if err != nil {
		d.logger.Warn("failed to read journal stats", logging.Error(err))
	} else {
		status.JobCounts = counts
	}
	return status
}

func (d *Daemon) logDependencySnapshot(ctx context.Context) {
	for _, dep := range preflight.CheckSystemDeps(ctx, d.cfg) {
		if dep.Available {
			d.logger.Info("dependency available",
				logging.String("name", dep.Name),
				logging.String("command", dep.Command),
				logging.String("detail", dep.Detail),
			)
			continue
		}
		level := d.logger.Warn
		impact := "merge requests will be refused"
		if dep.Optional {
			impact = "output metadata will not be recorded"
		}
		level("dependency missing",
			logging.String("name", dep.Name),
			logging.String("detail", dep.Detail),
			logging.String(logging.FieldImpact, impact),
		)
	}
}
