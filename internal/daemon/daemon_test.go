package daemon_test

import (
	"context"
	"strings"
	"testing"

	"splice/internal/daemon"
	"splice/internal/history"
	"splice/internal/logging"
	"splice/internal/testsupport"
)

func newDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	journal, err := history.Open(cfg.Paths.DatabasePath)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	d, err := daemon.New(cfg, journal, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestStartStopLifecycle(t *testing.T) {
	d := newDaemon(t)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if d.Addr() == "" {
		t.Fatal("expected a bound listen address")
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatalf("expected running status, got %+v", status)
	}
	if len(status.Dependencies) == 0 {
		t.Fatal("expected dependency snapshot in status")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected stopped status after Stop")
	}
}

func TestStartRefusesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	journal, err := history.Open(cfg.Paths.DatabasePath)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	first, err := daemon.New(cfg, journal, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = first.Close() })

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start first: %v", err)
	}
	defer first.Stop()

	secondJournal, err := history.Open(cfg.Paths.DatabasePath)
	if err != nil {
		t.Fatalf("history.Open second: %v", err)
	}
	second, err := daemon.New(cfg, secondJournal, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New second: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })

	err = second.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected already-running error, got %v", err)
	}
}
