package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/profile-enricher/internal/types"
)

// PostgresStore persists match records in a match_records table, one row
// per handle with the results held as JSONB. Each Merge is durable on
// return, so Flush is a no-op.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool to the database.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Load reads all stored records.
func (s *PostgresStore) Load(ctx context.Context) (map[string]*types.MatchRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT handle, results FROM match_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to query match records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]*types.MatchRecord)
	for rows.Next() {
		var handle string
		var resultsJSON []byte
		if err := rows.Scan(&handle, &resultsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan match record: %w", err)
		}
		record := &types.MatchRecord{Handle: handle}
		if err := json.Unmarshal(resultsJSON, &record.MatchedResults); err != nil {
			return nil, fmt.Errorf("failed to parse results for %s: %w", handle, err)
		}
		records[handle] = record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read match records: %w", err)
	}
	return records, nil
}

// Merge upserts the record, deduplicating results by URL against the row
// already stored for the handle. The read and write run in one
// transaction with the row locked so concurrent merges do not drop
// results.
func (s *PostgresStore) Merge(ctx context.Context, record *types.MatchRecord) error {
	if record == nil || record.Handle == "" {
		return fmt.Errorf("cannot merge record without a handle")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var existing []types.MatchedResult
	var resultsJSON []byte
	err = tx.QueryRow(ctx,
		`SELECT results FROM match_records WHERE handle = $1 FOR UPDATE`,
		record.Handle,
	).Scan(&resultsJSON)
	switch {
	case err == nil:
		if err := json.Unmarshal(resultsJSON, &existing); err != nil {
			return fmt.Errorf("failed to parse stored results for %s: %w", record.Handle, err)
		}
	case err == pgx.ErrNoRows:
		// first record for this handle
	default:
		return fmt.Errorf("failed to read match record: %w", err)
	}

	merged := mergeResults(existing, record.MatchedResults)
	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO match_records (id, handle, results)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (handle) DO UPDATE SET results = $3, updated_at = NOW()`,
		uuid.New(), record.Handle, mergedJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert match record: %w", err)
	}
	return tx.Commit(ctx)
}

// Flush is a no-op: merges commit as they happen.
func (s *PostgresStore) Flush(context.Context) error { return nil }

// Handles lists the handles that have a stored record.
func (s *PostgresStore) Handles(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT handle FROM match_records ORDER BY handle`)
	if err != nil {
		return nil, fmt.Errorf("failed to query handles: %w", err)
	}
	defer rows.Close()

	var handles []string
	for rows.Next() {
		var handle string
		if err := rows.Scan(&handle); err != nil {
			return nil, fmt.Errorf("failed to scan handle: %w", err)
		}
		handles = append(handles, handle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read handles: %w", err)
	}
	return handles, nil
}
