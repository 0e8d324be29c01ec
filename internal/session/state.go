// Package session owns conversation state: selection history, the excluded
// title set, and adaptation lineage. All mutation goes through the Manager,
// which enforces a single writer per session.
package session

import (
	"time"

	"github.com/plateful/platefinder/internal/recipe"
)

// TurnKind labels what produced a history entry.
type TurnKind string

const (
	TurnSearch TurnKind = "search"
	TurnSelect TurnKind = "select"
	TurnAdapt  TurnKind = "adapt"
)

// Turn is one entry in a session's history.
type Turn struct {
	Kind    TurnKind           `json:"kind"`
	RunID   string             `json:"run_id,omitempty"`
	Query   string             `json:"query,omitempty"`
	Source  recipe.Source      `json:"source,omitempty"`
	Results []recipe.Candidate `json:"results,omitempty"`
	At      time.Time          `json:"at"`
}

// AdaptationNode records the lineage of one proposed variant.
type AdaptationNode struct {
	ParentID  string           `json:"parent_id"`
	Goal      string           `json:"goal"`
	Candidate recipe.Candidate `json:"candidate"`
}

// State is the full per-session state. It is serialized to the session
// store after every mutation.
type State struct {
	SessionID        string                    `json:"session_id"`
	History          []Turn                    `json:"history"`
	ExcludedTitles   []string                  `json:"excluded_titles"`
	CurrentSelection *recipe.Candidate         `json:"current_selection,omitempty"`
	Adaptations      map[string]AdaptationNode `json:"adaptations,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// NewState returns an empty session state.
func NewState(sessionID string) *State {
	now := time.Now().UTC()
	return &State{
		SessionID:   sessionID,
		Adaptations: make(map[string]AdaptationNode),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Excluded reports whether a title is already in the exclusion set.
func (s *State) Excluded(title string) bool {
	key := recipe.NormalizeTitle(title)
	for _, t := range s.ExcludedTitles {
		if recipe.NormalizeTitle(t) == key {
			return true
		}
	}
	return false
}

// exclude adds a title to the exclusion set, once.
func (s *State) exclude(title string) {
	if title == "" || s.Excluded(title) {
		return
	}
	s.ExcludedTitles = append(s.ExcludedTitles, title)
}

// FindCandidate resolves a candidate or variant id against the adaptation
// tree first, then the history, newest turn first.
func (s *State) FindCandidate(id string) (recipe.Candidate, bool) {
	if node, ok := s.Adaptations[id]; ok {
		return node.Candidate, true
	}
	for i := len(s.History) - 1; i >= 0; i-- {
		for _, c := range s.History[i].Results {
			if c.ID == id {
				return c, true
			}
		}
	}
	return recipe.Candidate{}, false
}
