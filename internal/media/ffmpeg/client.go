package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"splice/internal/logging"
	"splice/internal/services"
)

// Merger defines the behaviour required by the merge pipeline.
type Merger interface {
	Merge(ctx context.Context, manifestPath, outputPath string) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps ffmpeg CLI interactions for lossless concatenation.
type Client struct {
	binary  string
	preset  string
	timeout time.Duration
	exec    Executor
	logger  *slog.Logger
}

// New constructs an ffmpeg client. A zero timeout leaves execution bounded
// only by the caller's context.
func New(binary, preset string, timeout time.Duration, logger *slog.Logger, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "ffmpeg", "new", "ffmpeg binary required", nil)
	}
	client := &Client{
		binary:  binary,
		preset:  strings.TrimSpace(preset),
		timeout: timeout,
		exec:    commandExecutor{},
		logger:  logging.NewComponentLogger(logger, "ffmpeg"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Merge concatenates the manifest's inputs into outputPath. The call blocks
// until ffmpeg exits or the context ends; one process is spawned per call and
// never retried. Failures surface the tool's diagnostic output and leave no
// partial artifact behind.
func (c *Client) Merge(ctx context.Context, manifestPath, outputPath string) error {
	if strings.TrimSpace(manifestPath) == "" {
		return services.Wrap(services.ErrMerge, "ffmpeg", "concat", "manifest path required", nil)
	}
	if strings.TrimSpace(outputPath) == "" {
		return services.Wrap(services.ErrMerge, "ffmpeg", "concat", "output path required", nil)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := c.concatArgs(manifestPath, outputPath)

	c.logger.Debug("starting merge",
		logging.String("manifest", manifestPath),
		logging.String("output", outputPath),
		logging.String("command", c.binary+" "+strings.Join(args, " ")),
	)
	started := time.Now()

	tail := newTailBuffer(tailLineLimit)
	runErr := c.exec.Run(runCtx, c.binary, args, tail.Append)

	if runErr != nil {
		// The tool may have gotten far enough to create the target; a failed
		// merge must not leave a partial artifact for anyone to mistake for
		// the result.
		if removeErr := os.Remove(outputPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			logging.WarnWithContext(c.logger, "failed to remove partial merge output", "merge_cleanup_failed",
				logging.String("output", outputPath),
				logging.Error(removeErr),
			)
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrMerge, "ffmpeg", "concat",
				fmt.Sprintf("merge exceeded %s timeout", c.timeout), runErr)
		}
		return services.Wrap(services.ErrMerge, "ffmpeg", "concat", tail.Diagnostics(), runErr)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return services.Wrap(services.ErrMerge, "ffmpeg", "concat", "tool exited cleanly but produced no output", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(outputPath)
		return services.Wrap(services.ErrMerge, "ffmpeg", "concat", "tool produced an empty output", nil)
	}

	c.logger.Debug("merge complete",
		logging.String("output", outputPath),
		logging.Int64("output_bytes", info.Size()),
		logging.Duration("merge_duration", time.Since(started)),
	)
	return nil
}

// concatArgs builds the concat demuxer invocation: inputs are trusted as-is
// (-safe 0, the manifest lives in our own workspace), streams are copied
// without re-encoding, and an existing target is overwritten.
func (c *Client) concatArgs(manifestPath, outputPath string) []string {
	args := []string{
		"-hide_banner",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
	}
	if c.preset != "" {
		args = append(args, "-preset", c.preset)
	}
	args = append(args, "-y", outputPath)
	return args
}

const tailLineLimit = 40

// tailBuffer retains the last lines of tool output for failure diagnostics.
type tailBuffer struct {
	mu    sync.Mutex
	lines []string
	limit int
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Append(line string) {
	line = strings.TrimRight(line, "\r")
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

func (t *tailBuffer) Diagnostics() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	joined := strings.TrimSpace(strings.Join(t.lines, "\n"))
	if joined == "" {
		return "tool reported no diagnostics"
	}
	return joined
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if onLine != nil {
				onLine(scanner.Text())
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
