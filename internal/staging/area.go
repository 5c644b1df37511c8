package staging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"splice/internal/logging"
	"splice/internal/services"
)

// UploadedFile records one staged input. Immutable once returned; the owning
// job removes it when the job concludes.
type UploadedFile struct {
	StoredPath   string
	OriginalName string
	SizeBytes    int64
}

// Area manages the merge workspace: a root directory holding one
// subdirectory per job. The root is created at construction and never
// removed by job cleanup.
type Area struct {
	root   string
	logger *slog.Logger
}

// NewArea prepares the workspace root. The directory is created when absent.
func NewArea(root string, logger *slog.Logger) (*Area, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, services.Wrap(services.ErrConfiguration, "staging", "new area", "workspace root not configured", nil)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrIO, "staging", "new area", "create workspace root", err)
	}
	return &Area{root: root, logger: logging.NewComponentLogger(logger, "staging")}, nil
}

// Root returns the workspace root directory.
func (a *Area) Root() string {
	return a.root
}

// CreateJob allocates a private directory for one merge job. Directory names
// are the job's UUID; collision resistance of UUIDs is the uniqueness
// precondition, so an existing directory is surfaced as an error rather
// than reused.
func (a *Area) CreateJob(jobID string) (*JobWorkspace, error) {
	dir := filepath.Join(a.root, jobID)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrIO, "staging", "create job", jobID, err)
	}
	return &JobWorkspace{jobID: jobID, dir: dir, logger: a.logger}, nil
}

// JobWorkspace is the per-job staging directory. It tracks every artifact
// created under it so Cleanup can remove them individually.
type JobWorkspace struct {
	jobID  string
	dir    string
	logger *slog.Logger

	staged       []UploadedFile
	manifestPath string
	outputPath   string

	cleanupOnce   sync.Once
	cleanupResult CleanupResult
}

// JobID returns the owning job identifier.
func (w *JobWorkspace) JobID() string { return w.jobID }

// Dir returns the workspace directory path.
func (w *JobWorkspace) Dir() string { return w.dir }

// Staged returns the staged inputs in the order they were persisted.
func (w *JobWorkspace) Staged() []UploadedFile {
	out := make([]UploadedFile, len(w.staged))
	copy(out, w.staged)
	return out
}

// Stage persists the full upload stream under a collision-free name before
// returning. Names combine a fresh UUID with the sanitized original name so
// identical submissions never collide. Failures are write failures; the
// caller must treat them as fatal for the job.
func (w *JobWorkspace) Stage(ctx context.Context, r io.Reader, originalName string) (UploadedFile, error) {
	if err := ctx.Err(); err != nil {
		return UploadedFile{}, services.Wrap(services.ErrIO, "staging", "stage input", originalName, err)
	}

	storedName := uuid.NewString() + "_" + SanitizeName(originalName)
	storedPath := filepath.Join(w.dir, storedName)

	file, err := os.OpenFile(storedPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return UploadedFile{}, services.Wrap(services.ErrIO, "staging", "stage input", originalName, err)
	}

	written, copyErr := io.Copy(file, r)
	closeErr := file.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		if removeErr := os.Remove(storedPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logging.WarnWithContext(w.logger, "failed to remove partial upload", "staging_cleanup_failed",
				logging.String("path", storedPath),
				logging.Error(removeErr),
			)
		}
		return UploadedFile{}, services.Wrap(services.ErrIO, "staging", "stage input", originalName, copyErr)
	}

	staged := UploadedFile{
		StoredPath:   storedPath,
		OriginalName: originalName,
		SizeBytes:    written,
	}
	w.staged = append(w.staged, staged)

	w.logger.Debug("staged upload",
		logging.String(logging.FieldJobID, w.jobID),
		logging.String("original_name", originalName),
		logging.String("stored_path", storedPath),
		logging.Int64("size_bytes", written),
	)
	return staged, nil
}

// ManifestPath allocates the concat manifest location for this job.
func (w *JobWorkspace) ManifestPath() string {
	if w.manifestPath == "" {
		w.manifestPath = filepath.Join(w.dir, "manifest.txt")
	}
	return w.manifestPath
}

// OutputPath allocates the merged artifact location for this job.
func (w *JobWorkspace) OutputPath() string {
	if w.outputPath == "" {
		w.outputPath = filepath.Join(w.dir, "merged.mp4")
	}
	return w.outputPath
}

// CleanupResult contains the outcome of an artifact cleanup operation.
type CleanupResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs an artifact path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// Cleanup removes every artifact the job created: staged inputs, the
// manifest, the merge output, and finally the job directory. Each artifact
// is removed independently so one failure never strands the others, and
// missing paths are not errors. Repeat calls are no-ops.
func (w *JobWorkspace) Cleanup() CleanupResult {
	w.cleanupOnce.Do(func() {
		paths := make([]string, 0, len(w.staged)+2)
		for _, f := range w.staged {
			paths = append(paths, f.StoredPath)
		}
		if w.manifestPath != "" {
			paths = append(paths, w.manifestPath)
		}
		if w.outputPath != "" {
			paths = append(paths, w.outputPath)
		}

		for _, path := range paths {
			if err := os.Remove(path); err != nil {
				if os.IsNotExist(err) {
					continue
				}
				w.cleanupResult.Errors = append(w.cleanupResult.Errors, CleanupError{Path: path, Error: err})
				logging.WarnWithContext(w.logger, "failed to remove job artifact", "staging_cleanup_failed",
					logging.String(logging.FieldJobID, w.jobID),
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
				continue
			}
			w.cleanupResult.Removed = append(w.cleanupResult.Removed, path)
		}

		// Strays (partial writes that were never registered) go with the
		// directory itself.
		if err := os.RemoveAll(w.dir); err != nil {
			w.cleanupResult.Errors = append(w.cleanupResult.Errors, CleanupError{Path: w.dir, Error: err})
			logging.WarnWithContext(w.logger, "failed to remove job workspace", "staging_cleanup_failed",
				logging.String(logging.FieldJobID, w.jobID),
				logging.String("path", w.dir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}

		w.logger.Debug("job workspace cleaned",
			logging.String(logging.FieldJobID, w.jobID),
			logging.Int("artifacts_removed", len(w.cleanupResult.Removed)),
			logging.Int("cleanup_errors", len(w.cleanupResult.Errors)),
		)
	})
	return w.cleanupResult
}

const maxSanitizedNameLength = 120

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName reduces an upload's client-supplied name to characters safe
// for the workspace filesystem. Path components are stripped and every
// disallowed run collapses to a single underscore.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = filepath.Base(name)
	// Client names may carry Windows separators the host treats as plain runes.
	if idx := strings.LastIndexAny(name, `\/`); idx >= 0 {
		name = name[idx+1:]
	}
	sanitized := unsafeNameChars.ReplaceAllString(name, "_")
	sanitized = strings.Trim(sanitized, "._")
	if len(sanitized) > maxSanitizedNameLength {
		sanitized = sanitized[:maxSanitizedNameLength]
	}
	if sanitized == "" {
		return "upload"
	}
	return sanitized
}
