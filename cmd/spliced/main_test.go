package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvironmentReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("SPLICE_TEST_SENTINEL=from-file\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("SPLICE_TEST_SENTINEL", "")
	os.Unsetenv("SPLICE_TEST_SENTINEL")

	loadEnvironment()

	if got := os.Getenv("SPLICE_TEST_SENTINEL"); got != "from-file" {
		t.Fatalf("expected sentinel from .env, got %q", got)
	}
}

func TestLoadEnvironmentDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("SPLICE_TEST_SENTINEL=from-file\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("SPLICE_TEST_SENTINEL", "preset")

	loadEnvironment()

	if got := os.Getenv("SPLICE_TEST_SENTINEL"); got != "preset" {
		t.Fatalf("expected preset value to survive, got %q", got)
	}
}
