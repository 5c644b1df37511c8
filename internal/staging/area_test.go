package staging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"splice/internal/logging"
	"splice/internal/services"
)

func newTestArea(t *testing.T) *Area {
	t.Helper()
	area, err := NewArea(t.TempDir(), logging.NewNop())
	if err != nil {
		t.Fatalf("NewArea: %v", err)
	}
	return area
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"clip.mp4", "clip.mp4"},
		{"My Video (1).mp4", "My_Video_1_.mp4"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\holiday clip.mov`, "holiday_clip.mov"},
		{"it's here.mp4", "it_s_here.mp4"},
		{"....", "upload"},
		{"???", "upload"},
		{"", "upload"},
		{strings.Repeat("a", 300) + ".mp4", strings.Repeat("a", 120)},
	}
	for _, tc := range cases {
		if got := SanitizeName(tc.in); got != tc.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStagePersistsStream(t *testing.T) {
	area := newTestArea(t)
	ws, err := area.CreateJob(uuid.NewString())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	staged, err := ws.Stage(context.Background(), strings.NewReader("payload"), "clip one.mp4")
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if staged.OriginalName != "clip one.mp4" {
		t.Errorf("OriginalName = %q", staged.OriginalName)
	}
	if staged.SizeBytes != int64(len("payload")) {
		t.Errorf("SizeBytes = %d, want %d", staged.SizeBytes, len("payload"))
	}
	if filepath.Dir(staged.StoredPath) != ws.Dir() {
		t.Errorf("stored outside job dir: %q", staged.StoredPath)
	}
	if !strings.HasSuffix(staged.StoredPath, "_clip_one.mp4") {
		t.Errorf("expected sanitized suffix, got %q", staged.StoredPath)
	}

	content, err := os.ReadFile(staged.StoredPath)
	if err != nil {
		t.Fatalf("read staged file: %v", err)
	}
	if string(content) != "payload" {
		t.Errorf("staged content = %q", content)
	}
}

func TestStageUniqueNamesForIdenticalUploads(t *testing.T) {
	area := newTestArea(t)
	ws, err := area.CreateJob(uuid.NewString())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	first, err := ws.Stage(context.Background(), strings.NewReader("a"), "same.mp4")
	if err != nil {
		t.Fatalf("Stage first: %v", err)
	}
	second, err := ws.Stage(context.Background(), strings.NewReader("b"), "same.mp4")
	if err != nil {
		t.Fatalf("Stage second: %v", err)
	}
	if first.StoredPath == second.StoredPath {
		t.Fatalf("expected distinct stored paths, both %q", first.StoredPath)
	}
	if got := len(ws.Staged()); got != 2 {
		t.Fatalf("expected 2 staged files, got %d", got)
	}
}

func TestStagePreservesSubmissionOrder(t *testing.T) {
	area := newTestArea(t)
	ws, err := area.CreateJob(uuid.NewString())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	names := []string{"one.mp4", "two.mp4", "three.mp4"}
	for _, name := range names {
		if _, err := ws.Stage(context.Background(), strings.NewReader(name), name); err != nil {
			t.Fatalf("Stage %s: %v", name, err)
		}
	}

	staged := ws.Staged()
	if len(staged) != len(names) {
		t.Fatalf("expected %d staged, got %d", len(names), len(staged))
	}
	for i, name := range names {
		if staged[i].OriginalName != name {
			t.Errorf("staged[%d] = %q, want %q", i, staged[i].OriginalName, name)
		}
	}
}

func TestStageCanceledContext(t *testing.T) {
	area := newTestArea(t)
	ws, err := area.CreateJob(uuid.NewString())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ws.Stage(ctx, strings.NewReader("x"), "clip.mp4"); err == nil {
		t.Fatal("expected error for canceled context")
	} else if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io marker, got %v", err)
	}
}

func TestCreateJobCollision(t *testing.T) {
	area := newTestArea(t)
	id := uuid.NewString()
	if _, err := area.CreateJob(id); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if _, err := area.CreateJob(id); err == nil {
		t.Fatal("expected error for duplicate job directory")
	} else if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io marker, got %v", err)
	}
}

func TestCleanupRemovesAllArtifacts(t *testing.T) {
	area := newTestArea(t)
	ws, err := area.CreateJob(uuid.NewString())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	for _, name := range []string{"a.mp4", "b.mp4"} {
		if _, err := ws.Stage(context.Background(), strings.NewReader("data"), name); err != nil {
			t.Fatalf("Stage: %v", err)
		}
	}
	if err := os.WriteFile(ws.ManifestPath(), []byte("file 'x'\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := os.WriteFile(ws.OutputPath(), []byte("mp4"), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}

	result := ws.Cleanup()
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected cleanup errors: %v", result.Errors)
	}
	if len(result.Removed) != 4 {
		t.Fatalf("expected 4 removed artifacts, got %d: %v", len(result.Removed), result.Removed)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Fatal("job directory should be gone")
	}

	entries, err := os.ReadDir(area.Root())
	if err != nil {
		t.Fatalf("read workspace root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("workspace root should be empty, found %d entries", len(entries))
	}
}

func TestCleanupIdempotent(t *testing.T) {
	area := newTestArea(t)
	ws, err := area.CreateJob(uuid.NewString())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	staged, err := ws.Stage(context.Background(), strings.NewReader("data"), "a.mp4")
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	// Artifact already gone before cleanup runs.
	if err := os.Remove(staged.StoredPath); err != nil {
		t.Fatalf("remove staged: %v", err)
	}

	first := ws.Cleanup()
	if len(first.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", first.Errors)
	}

	second := ws.Cleanup()
	if len(second.Errors) != len(first.Errors) || len(second.Removed) != len(first.Removed) {
		t.Fatal("expected repeat cleanup to return the first result unchanged")
	}
}

func TestNewAreaRequiresRoot(t *testing.T) {
	if _, err := NewArea("   ", logging.NewNop()); err == nil {
		t.Fatal("expected error for blank root")
	} else if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}
