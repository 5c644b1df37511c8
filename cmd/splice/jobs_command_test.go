package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"splice/internal/api"
	"splice/internal/history"
)

func seedJournal(t *testing.T, dbPath string, records ...history.Record) {
	t.Helper()

	journal, err := history.Open(dbPath)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer journal.Close()
	for _, record := range records {
		if err := journal.Append(context.Background(), record); err != nil {
			t.Fatalf("append record: %v", err)
		}
	}
}

func TestJobsListFallsBackToJournal(t *testing.T) {
	configPath, cfg := writeTestConfig(t)
	now := time.Now().UTC()
	seedJournal(t, cfg.Paths.DatabasePath,
		history.Record{
			ID:          "11111111-aaaa-bbbb-cccc-000000000001",
			Status:      "succeeded",
			InputCount:  3,
			InputBytes:  300,
			OutputBytes: 295,
			CreatedAt:   now.Add(-time.Minute),
			CompletedAt: now,
		},
		history.Record{
			ID:           "11111111-aaaa-bbbb-cccc-000000000002",
			Status:       "failed",
			ErrorMessage: "merge error: tool exited 1",
			InputCount:   2,
			CreatedAt:    now,
			CompletedAt:  now,
		},
	)

	out, _, err := runCLI(t, configPath, "jobs")
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, out, "11111111-aaaa-bbbb-cccc-000000000001")
	requireContains(t, out, "Succeeded")
	requireContains(t, out, "Failed")
}

func TestJobsShowEmitsJSON(t *testing.T) {
	configPath, cfg := writeTestConfig(t)
	now := time.Now().UTC()
	seedJournal(t, cfg.Paths.DatabasePath, history.Record{
		ID:                    "22222222-aaaa-bbbb-cccc-000000000001",
		Status:                "succeeded",
		InputCount:            2,
		InputBytes:            128,
		OutputBytes:           120,
		OutputDurationSeconds: 4.5,
		CreatedAt:             now,
		CompletedAt:           now,
	})

	out, _, err := runCLI(t, configPath, "jobs", "show", "22222222-aaaa-bbbb-cccc-000000000001", "--json")
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}

	var payload api.JobResponse
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if payload.Job.Status != "succeeded" || payload.Job.InputCount != 2 {
		t.Fatalf("unexpected job payload: %+v", payload.Job)
	}
}

func TestJobsPruneRemovesOldRecords(t *testing.T) {
	configPath, cfg := writeTestConfig(t)
	now := time.Now().UTC()
	seedJournal(t, cfg.Paths.DatabasePath,
		history.Record{
			ID:          "33333333-aaaa-bbbb-cccc-000000000001",
			Status:      "succeeded",
			InputCount:  2,
			CreatedAt:   now.Add(-48 * time.Hour),
			CompletedAt: now.Add(-48 * time.Hour),
		},
		history.Record{
			ID:          "33333333-aaaa-bbbb-cccc-000000000002",
			Status:      "succeeded",
			InputCount:  2,
			CreatedAt:   now,
			CompletedAt: now,
		},
	)

	out, _, err := runCLI(t, configPath, "jobs", "prune", "--older-than", "24h")
	if err != nil {
		t.Fatalf("jobs prune: %v", err)
	}
	requireContains(t, out, "Pruned 1 job records")

	journal, err := history.Open(cfg.Paths.DatabasePath)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer journal.Close()
	records, err := journal.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].ID != "33333333-aaaa-bbbb-cccc-000000000002" {
		t.Fatalf("expected only the recent record, got %+v", records)
	}
}

func TestJobsShowUnknownID(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	_, _, err := runCLI(t, configPath, "jobs", "show", "not-a-job")
	if err == nil {
		t.Fatal("expected an error for an unknown job id")
	}
}
