package deps

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func stubBinary(t *testing.T, dir, name, script string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
}

func TestCheckBinariesReportsVersionForAvailableBinary(t *testing.T) {
	binDir := t.TempDir()
	stubBinary(t, binDir, "ffmpeg", "#!/bin/sh\necho 'ffmpeg version 7.1 Copyright'\n")
	t.Setenv("PATH", binDir)

	statuses := CheckBinaries(context.Background(), []Requirement{
		{Name: "FFmpeg", Command: "ffmpeg", Description: "merge tool"},
	})
	if len(statuses) != 1 {
		t.Fatalf("expected 1 status, got %d", len(statuses))
	}
	status := statuses[0]
	if !status.Available {
		t.Fatalf("expected available, got %+v", status)
	}
	if !strings.Contains(status.Detail, "ffmpeg version 7.1") {
		t.Fatalf("expected version detail, got %q", status.Detail)
	}
	if status.Command != filepath.Join(binDir, "ffmpeg") {
		t.Fatalf("expected resolved path, got %q", status.Command)
	}
}

func TestCheckBinariesReportsMissingBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	statuses := CheckBinaries(context.Background(), []Requirement{
		{Name: "FFmpeg", Command: "ffmpeg"},
		{Name: "Unset", Command: "  "},
	})
	if statuses[0].Available {
		t.Fatalf("expected ffmpeg unavailable, got %+v", statuses[0])
	}
	if !strings.Contains(statuses[0].Detail, "not found") {
		t.Fatalf("expected not-found detail, got %q", statuses[0].Detail)
	}
	if statuses[1].Detail != "command not configured" {
		t.Fatalf("expected unconfigured detail, got %q", statuses[1].Detail)
	}
}

func TestFFmpegAvailable(t *testing.T) {
	binDir := t.TempDir()
	t.Setenv("PATH", binDir)

	if FFmpegAvailable(nil) {
		t.Fatal("expected ffmpeg unavailable on empty PATH")
	}
	stubBinary(t, binDir, "ffmpeg", "#!/bin/sh\nexit 0\n")
	if !FFmpegAvailable(nil) {
		t.Fatal("expected ffmpeg available after stubbing")
	}
}
