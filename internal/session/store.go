package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/plateful/platefinder/internal/db"
)

// Store persists session state. One record per session id; the Manager is
// its only caller.
type Store interface {
	// Load returns the state for the session, or nil if none is stored.
	Load(ctx context.Context, sessionID string) (*State, error)

	// Save writes the state, replacing any previous record.
	Save(ctx context.Context, state *State) error

	// List returns stored states, most recently updated first.
	List(ctx context.Context, limit int) ([]*State, error)
}

// SQLiteStore implements Store on the sessions table.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a store backed by the given database.
func NewSQLiteStore(database *db.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (*State, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", sessionID, err)
	}
	if state.Adaptations == nil {
		state.Adaptations = make(map[string]AdaptationNode)
	}
	return &state, nil
}

func (s *SQLiteStore) Save(ctx context.Context, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", state.SessionID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, state, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(session_id) DO UPDATE SET
			state = excluded.state,
			updated_at = datetime('now')`,
		state.SessionID, string(raw),
	)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", state.SessionID, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*State, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT state FROM sessions ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var states []*State
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var state State
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			return nil, fmt.Errorf("decoding session: %w", err)
		}
		states = append(states, &state)
	}
	return states, rows.Err()
}

// MemoryStore is an in-memory Store for tests and ephemeral CLI runs.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]string)}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*State, error) {
	s.mu.RLock()
	raw, ok := s.states[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, err
	}
	if state.Adaptations == nil {
		state.Adaptations = make(map[string]AdaptationNode)
	}
	return &state, nil
}

func (s *MemoryStore) Save(ctx context.Context, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.states[state.SessionID] = string(raw)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var states []*State
	for _, raw := range s.states {
		var state State
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			return nil, err
		}
		states = append(states, &state)
		if limit > 0 && len(states) >= limit {
			break
		}
	}
	return states, nil
}
