package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plateful/platefinder/internal/db"
)

// Store provides access to the run log.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new run entry. If entry.ID is empty a UUID is generated.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	var errMsg sql.NullString
	if entry.Error != "" {
		errMsg = sql.NullString{String: entry.Error, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_log (id, session_id, kind, input, source, results, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.SessionID,
		string(entry.Kind),
		entry.Input,
		entry.Source,
		entry.Results,
		entry.Duration.Milliseconds(),
		errMsg,
	)
	if err != nil {
		return fmt.Errorf("inserting run entry: %w", err)
	}
	return nil
}

// GetByID retrieves a single run entry.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, session_id, kind, input, source, results, duration_ms, error
		FROM run_log WHERE id = ?`, id)
	return scanEntry(row)
}

// QueryFilter controls which run entries are returned by Query.
type QueryFilter struct {
	SessionID string
	Kind      Kind
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}

// Query returns run entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC())
	}
	if filter.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.Until.UTC())
	}

	query := `SELECT id, timestamp, session_id, kind, input, source, results, duration_ms, error FROM run_log`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying run log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		entry      Entry
		kind       string
		durationMS int64
		errMsg     sql.NullString
	)
	if err := row.Scan(&entry.ID, &entry.Timestamp, &entry.SessionID, &kind,
		&entry.Input, &entry.Source, &entry.Results, &durationMS, &errMsg); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run entry not found")
		}
		return nil, fmt.Errorf("scanning run entry: %w", err)
	}
	entry.Kind = Kind(kind)
	entry.Duration = time.Duration(durationMS) * time.Millisecond
	entry.Error = errMsg.String
	return &entry, nil
}
