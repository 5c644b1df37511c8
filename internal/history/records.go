package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Record is one concluded merge job. ErrorMessage is empty when Status is
// succeeded.
type Record struct {
	ID                    string
	Status                string
	ErrorMessage          string
	InputCount            int
	InputBytes            int64
	OutputBytes           int64
	OutputDurationSeconds float64
	CreatedAt             time.Time
	CompletedAt           time.Time
}

const recordColumns = `id, status, error_message, input_count, input_bytes,
    output_bytes, output_duration_seconds, created_at, completed_at`

// Append journals a concluded job. Jobs are written once, at conclusion;
// there is no in-flight row to update.
func (s *Store) Append(ctx context.Context, record Record) error {
	if strings.TrimSpace(record.ID) == "" {
		return errors.New("history: record id is required")
	}
	if strings.TrimSpace(record.Status) == "" {
		return errors.New("history: record status is required")
	}
	created := record.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	completed := record.CompletedAt
	if completed.IsZero() {
		completed = time.Now().UTC()
	}

	err := s.execWithRetry(
		ctx,
		`INSERT INTO merge_jobs (
            id, status, error_message, input_count, input_bytes,
            output_bytes, output_duration_seconds, created_at, completed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Status,
		nullableString(record.ErrorMessage),
		record.InputCount,
		record.InputBytes,
		record.OutputBytes,
		record.OutputDurationSeconds,
		created.UTC().Format(time.RFC3339Nano),
		completed.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// List returns the most recently completed jobs, newest first. A limit <= 0
// returns every record.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + recordColumns + " FROM merge_jobs ORDER BY completed_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Get returns the record for one job, or nil when the id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM merge_jobs WHERE id = ?", id)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Stats returns completed job counts keyed by status.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM merge_jobs GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

// Prune removes records completed before the cutoff and reports how many
// rows were deleted.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	var deleted int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx,
			"DELETE FROM merge_jobs WHERE completed_at < ?",
			cutoff.UTC().Format(time.RFC3339Nano))
		if execErr != nil {
			return execErr
		}
		deleted, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("prune records: %w", err)
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(scanner rowScanner) (Record, error) {
	var record Record
	var errorMessage sql.NullString
	var createdAt, completedAt string

	if err := scanner.Scan(
		&record.ID,
		&record.Status,
		&errorMessage,
		&record.InputCount,
		&record.InputBytes,
		&record.OutputBytes,
		&record.OutputDurationSeconds,
		&createdAt,
		&completedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan record: %w", err)
	}

	record.ErrorMessage = errorMessage.String
	record.CreatedAt = parseTimestamp(createdAt)
	record.CompletedAt = parseTimestamp(completedAt)
	return record, nil
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	return time.Time{}
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
