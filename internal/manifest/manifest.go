// Package manifest renders ffmpeg concat demuxer input lists.
//
// The concat demuxer reads one directive per line in the form
//
//	file '/absolute/path/to/input.mp4'
//
// Line order is merge order. The quoted form has no escape for a single
// quote inside the path, so such paths are rejected outright rather than
// written into a list ffmpeg would misparse.
package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"splice/internal/services"
)

// Render builds the manifest body for the given input paths, one line per
// input in the order supplied. Every path is made absolute and normalized to
// forward slashes so the list stays valid regardless of host OS.
func Render(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", services.Wrap(services.ErrValidation, "manifest", "render", "no input files", nil)
	}

	var b strings.Builder
	for _, path := range paths {
		line, err := renderLine(path)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// Write renders the manifest and persists it to destPath.
func Write(paths []string, destPath string) error {
	body, err := Render(paths)
	if err != nil {
		return err
	}
	if err := os.WriteFile(destPath, []byte(body), 0o644); err != nil {
		return services.Wrap(services.ErrIO, "manifest", "write", destPath, err)
	}
	return nil
}

func renderLine(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", services.Wrap(services.ErrInvalidPath, "manifest", "render", "empty input path", nil)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", services.Wrap(services.ErrInvalidPath, "manifest", "render", path, err)
	}
	normalized := filepath.ToSlash(abs)
	if strings.ContainsRune(normalized, '\'') {
		return "", services.Wrap(services.ErrInvalidPath, "manifest", "render", "path contains a single quote: "+normalized, nil)
	}
	return "file '" + normalized + "'", nil
}
