// Package deps reports the availability of the external binaries splice
// shells out to. The daemon logs a snapshot at startup and refuses merge
// requests while ffmpeg is missing; the status surfaces reuse the same
// checks.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"splice/internal/config"
)

// Requirement defines an external binary splice relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement. Detail carries the
// resolved version line when available, the lookup failure otherwise.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// SystemRequirements lists the binaries the configured deployment needs.
// FFprobe is optional: without it merges still work, the journal just
// records no output duration.
func SystemRequirements(cfg *config.Config) []Requirement {
	ffmpegBinary := "ffmpeg"
	ffprobeBinary := "ffprobe"
	if cfg != nil {
		ffmpegBinary = cfg.FFmpegBinary()
		ffprobeBinary = cfg.FFprobeBinary()
	}
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpegBinary,
			Description: "Required for lossless concatenation",
		},
		{
			Name:        "FFprobe",
			Command:     ffprobeBinary,
			Description: "Captures merged output metadata",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, checkBinary(ctx, req))
	}
	return results
}

// FFmpegAvailable reports whether the configured merge tool resolves on PATH.
func FFmpegAvailable(cfg *config.Config) bool {
	binary := "ffmpeg"
	if cfg != nil {
		binary = cfg.FFmpegBinary()
	}
	_, err := exec.LookPath(binary)
	return err == nil
}

func checkBinary(ctx context.Context, req Requirement) Status {
	command := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     command,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if command == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", command)
		return status
	}
	status.Command = resolved
	status.Available = true
	if version := probeVersion(ctx, resolved); version != "" {
		status.Detail = version
	}
	return status
}

// probeVersion captures the first line of `<binary> -version`. Best effort:
// an uncooperative binary is still considered available.
func probeVersion(ctx context.Context, binary string) string {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(probeCtx, binary, "-version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line)
}
