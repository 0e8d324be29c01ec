package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/plateful/platefinder/internal/recipe"
)

// ErrSessionBusy is returned when a mutation arrives while another writer
// holds the same session. Callers retry; state is never interleaved.
var ErrSessionBusy = errors.New("session has a mutation in flight")

// ErrNoSelection is returned by adaptation-related operations when the
// session has no committed selection to work from.
var ErrNoSelection = errors.New("session has no current selection")

// Manager is the sole owner of session state. Different sessions mutate
// independently; mutations within one session are rejected while another
// is in flight.
type Manager struct {
	store Store

	mu   sync.Mutex
	busy map[string]bool
}

// NewManager creates a Manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{store: store, busy: make(map[string]bool)}
}

// acquire marks the session as having a writer. Returns ErrSessionBusy if
// one is already active.
func (m *Manager) acquire(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy[sessionID] {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionBusy)
	}
	m.busy[sessionID] = true
	return nil
}

func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	delete(m.busy, sessionID)
	m.mu.Unlock()
}

// mutate loads the session (creating it if absent), applies fn, and saves.
// The single-writer discipline holds for the whole load-apply-save span.
func (m *Manager) mutate(ctx context.Context, sessionID string, fn func(*State) error) (*State, error) {
	if err := m.acquire(sessionID); err != nil {
		return nil, err
	}
	defer m.release(sessionID)

	state, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = NewState(sessionID)
	}

	if err := fn(state); err != nil {
		return nil, err
	}
	state.UpdatedAt = time.Now().UTC()

	if err := m.store.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Snapshot returns the current state without mutating, or a fresh empty
// state if the session has never been written.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*State, error) {
	state, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = NewState(sessionID)
	}
	return state, nil
}

// List returns recent sessions, for resume.
func (m *Manager) List(ctx context.Context, limit int) ([]*State, error) {
	return m.store.List(ctx, limit)
}

// RecordSearch appends a completed search turn to the history.
func (m *Manager) RecordSearch(ctx context.Context, sessionID, runID, query string, source recipe.Source, results []recipe.Candidate) (*State, error) {
	return m.mutate(ctx, sessionID, func(s *State) error {
		s.History = append(s.History, Turn{
			Kind:    TurnSearch,
			RunID:   runID,
			Query:   query,
			Source:  source,
			Results: results,
			At:      time.Now().UTC(),
		})
		return nil
	})
}

// RecordAdaptations stores proposed variants in the adaptation tree so a
// later Select can commit one of them.
func (m *Manager) RecordAdaptations(ctx context.Context, sessionID, parentID, goal string, options []recipe.AdaptationOption) (*State, error) {
	return m.mutate(ctx, sessionID, func(s *State) error {
		for _, opt := range options {
			s.Adaptations[opt.VariantID] = AdaptationNode{
				ParentID:  parentID,
				Goal:      goal,
				Candidate: opt.Candidate,
			}
		}
		s.History = append(s.History, Turn{Kind: TurnAdapt, Query: goal, At: time.Now().UTC()})
		return nil
	})
}

// Select commits a candidate or variant as the current selection, appends
// it to history, and adds its title to the exclusion set.
func (m *Manager) Select(ctx context.Context, sessionID, candidateID string) (*State, error) {
	return m.mutate(ctx, sessionID, func(s *State) error {
		cand, ok := s.FindCandidate(candidateID)
		if !ok {
			return fmt.Errorf("candidate %q not found in session %s", candidateID, sessionID)
		}
		s.CurrentSelection = &cand
		s.exclude(cand.Title)
		s.History = append(s.History, Turn{
			Kind:    TurnSelect,
			Results: []recipe.Candidate{cand},
			At:      time.Now().UTC(),
		})
		return nil
	})
}

// Selection returns the current selection, or ErrNoSelection.
func (m *Manager) Selection(ctx context.Context, sessionID string) (recipe.Candidate, error) {
	state, err := m.Snapshot(ctx, sessionID)
	if err != nil {
		return recipe.Candidate{}, err
	}
	if state.CurrentSelection == nil {
		return recipe.Candidate{}, ErrNoSelection
	}
	return *state.CurrentSelection, nil
}

// Reset clears the session back to an empty state. Resetting an already
// empty session is a no-op that yields the same empty state.
func (m *Manager) Reset(ctx context.Context, sessionID string) (*State, error) {
	return m.mutate(ctx, sessionID, func(s *State) error {
		fresh := NewState(sessionID)
		fresh.CreatedAt = s.CreatedAt
		if fresh.CreatedAt.IsZero() {
			fresh.CreatedAt = time.Now().UTC()
		}
		*s = *fresh
		return nil
	})
}
