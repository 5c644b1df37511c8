package merge

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"splice/internal/history"
	"splice/internal/logging"
	"splice/internal/manifest"
	"splice/internal/media/ffmpeg"
	"splice/internal/services"
	"splice/internal/staging"
)

// MinInputFiles is the smallest number of inputs a merge accepts.
const MinInputFiles = 2

// Upload is one incoming file stream with its client-supplied name.
type Upload struct {
	Name string
	Data io.Reader
}

// Prober captures output metadata after a successful merge. Probe failures
// are observational and never fail the job.
type Prober func(ctx context.Context, path string) (durationSeconds float64, err error)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithJournal records every concluded job in the given store.
func WithJournal(store *history.Store) Option {
	return func(p *Pipeline) { p.journal = store }
}

// WithProber captures output duration for the journal after success.
func WithProber(probe Prober) Option {
	return func(p *Pipeline) { p.probe = probe }
}

// Pipeline runs merge jobs end to end. Concurrent Run calls are safe: each
// job works in its own uuid-named workspace and spawns its own ffmpeg
// process, so jobs share nothing but the workspace root namespace.
type Pipeline struct {
	area    *staging.Area
	merger  ffmpeg.Merger
	journal *history.Store
	probe   Prober
	logger  *slog.Logger
}

// NewPipeline wires the orchestrator. The journal and prober are optional.
func NewPipeline(area *staging.Area, merger ffmpeg.Merger, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if area == nil {
		return nil, services.Wrap(services.ErrConfiguration, "merge", "new pipeline", "staging area required", nil)
	}
	if merger == nil {
		return nil, services.Wrap(services.ErrConfiguration, "merge", "new pipeline", "merger required", nil)
	}
	pipeline := &Pipeline{
		area:   area,
		merger: merger,
		logger: logging.NewComponentLogger(logger, "merge"),
	}
	for _, opt := range opts {
		opt(pipeline)
	}
	return pipeline, nil
}

// Result is a successful merge awaiting delivery. The output file outlives
// the Run call; the caller must invoke Finish once delivery concludes (or
// fails), which journals the outcome and removes every job artifact.
type Result struct {
	Job                   *Job
	OutputPath            string
	OutputBytes           int64
	OutputDurationSeconds float64

	pipeline *Pipeline
	once     sync.Once
}

// Run executes one merge job: stage every upload in submission order, check
// preconditions, write the manifest, and invoke the merge tool. On any
// failure the job is concluded on the spot: journaled, cleaned up, and the
// classified error returned. On success cleanup is deferred to
// Result.Finish so the output survives response delivery.
func (p *Pipeline) Run(ctx context.Context, uploads []Upload) (*Result, error) {
	job := &Job{
		ID:         uuid.NewString(),
		ReceivedAt: time.Now().UTC(),
		state:      StateStaging,
	}
	ctx = services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(ctx, p.logger)

	workspace, err := p.area.CreateJob(job.ID)
	if err != nil {
		wrapped := services.Wrap(services.ErrUpload, "merge", "create workspace", job.ID, err)
		p.journalOutcome(job, wrapped)
		return nil, wrapped
	}
	job.Workspace = workspace

	logger.Info("merge job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.Int("upload_count", len(uploads)),
	)

	for _, upload := range uploads {
		staged, stageErr := workspace.Stage(ctx, upload.Data, upload.Name)
		if stageErr != nil {
			return nil, p.fail(logger, job,
				services.Wrap(services.ErrUpload, "merge", "stage upload", upload.Name, stageErr))
		}
		job.InputFiles = append(job.InputFiles, staged)
	}

	if len(job.InputFiles) < MinInputFiles {
		return nil, p.fail(logger, job,
			services.Wrap(services.ErrValidation, "merge", "validate inputs",
				"at least 2 files required", nil))
	}

	paths := make([]string, len(job.InputFiles))
	for i, file := range job.InputFiles {
		paths[i] = file.StoredPath
	}
	if err := manifest.Write(paths, workspace.ManifestPath()); err != nil {
		return nil, p.fail(logger, job, err)
	}
	if err := job.advance(StateManifestReady); err != nil {
		return nil, p.fail(logger, job, services.Wrap(services.ErrIO, "merge", "advance state", job.ID, err))
	}

	if err := job.advance(StateMerging); err != nil {
		return nil, p.fail(logger, job, services.Wrap(services.ErrIO, "merge", "advance state", job.ID, err))
	}
	mergeStart := time.Now()
	if err := p.merger.Merge(ctx, workspace.ManifestPath(), workspace.OutputPath()); err != nil {
		return nil, p.fail(logger, job, err)
	}

	info, err := os.Stat(workspace.OutputPath())
	if err != nil {
		return nil, p.fail(logger, job,
			services.Wrap(services.ErrMerge, "merge", "inspect output", workspace.OutputPath(), err))
	}
	if err := job.advance(StateSucceeded); err != nil {
		return nil, p.fail(logger, job, services.Wrap(services.ErrIO, "merge", "advance state", job.ID, err))
	}

	result := &Result{
		Job:         job,
		OutputPath:  workspace.OutputPath(),
		OutputBytes: info.Size(),
		pipeline:    p,
	}
	if p.probe != nil {
		duration, probeErr := p.probe(ctx, result.OutputPath)
		if probeErr != nil {
			logger.Warn("output probe failed",
				logging.Error(probeErr),
				logging.String(logging.FieldImpact, "journal records no output duration"),
			)
		} else {
			result.OutputDurationSeconds = duration
		}
	}

	logger.Info("merge complete",
		logging.String(logging.FieldEventType, "job_merged"),
		logging.Int("input_count", len(job.InputFiles)),
		logging.Int64("output_bytes", result.OutputBytes),
		logging.Duration("merge_duration", time.Since(mergeStart)),
	)
	return result, nil
}

// Finish concludes a delivered job. A nil deliveryErr journals success; a
// non-nil one journals a delivery failure. Either way, every artifact the
// job created is removed. Finish is idempotent.
func (r *Result) Finish(deliveryErr error) {
	r.once.Do(func() {
		p := r.pipeline
		logger := p.logger.With(logging.String(logging.FieldJobID, r.Job.ID))

		var outcome error
		if deliveryErr != nil {
			outcome = services.Wrap(services.ErrDelivery, "merge", "deliver output", r.OutputPath, deliveryErr)
			logging.WarnWithContext(logger, "response delivery failed", "job_delivery_failed",
				logging.Error(outcome),
				logging.String(logging.FieldImpact, "caller did not receive the merged file"),
			)
		} else {
			logger.Info("merge job delivered",
				logging.String(logging.FieldEventType, "job_delivered"),
				logging.Int64("output_bytes", r.OutputBytes),
			)
		}
		p.journalConcluded(r.Job, outcome, r.OutputBytes, r.OutputDurationSeconds)
		r.Job.Workspace.Cleanup()
	})
}

// fail concludes a job on an intra-pipeline failure: state moves to Failed,
// the outcome is journaled, and all artifacts (including any partial output)
// are removed before the error is returned to the caller.
func (p *Pipeline) fail(logger *slog.Logger, job *Job, err error) error {
	if advErr := job.advance(StateFailed); advErr != nil {
		logger.Warn("job state conflict at failure", logging.Error(advErr))
	}
	logging.ErrorWithContext(logger, "merge job failed", "job_failed",
		logging.Error(err),
		logging.String("state", string(job.State())),
	)
	p.journalConcluded(job, err, 0, 0)
	if job.Workspace != nil {
		job.Workspace.Cleanup()
	}
	return err
}

// journalOutcome records a job that failed before a workspace existed.
func (p *Pipeline) journalOutcome(job *Job, err error) {
	p.journalConcluded(job, err, 0, 0)
}

func (p *Pipeline) journalConcluded(job *Job, outcome error, outputBytes int64, outputDuration float64) {
	if p.journal == nil {
		return
	}
	record := history.Record{
		ID:                    job.ID,
		Status:                string(StateSucceeded),
		InputCount:            len(job.InputFiles),
		InputBytes:            job.InputBytes(),
		OutputBytes:           outputBytes,
		OutputDurationSeconds: outputDuration,
		CreatedAt:             job.ReceivedAt,
		CompletedAt:           time.Now().UTC(),
	}
	if outcome != nil {
		record.Status = string(StateFailed)
		record.ErrorMessage = outcome.Error()
	}
	if err := p.journal.Append(context.Background(), record); err != nil {
		logging.WarnWithContext(p.logger, "failed to journal job outcome", "journal_append_failed",
			logging.String(logging.FieldJobID, job.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "job missing from history"),
		)
	}
}
