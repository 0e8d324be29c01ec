// Package pipeline drives the corrective search flow: intent extraction,
// index retrieval, relevance judging, web fallback and recipe adaptation,
// committing each completed run to the session history.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/plateful/platefinder/internal/adapter"
	"github.com/plateful/platefinder/internal/audit"
	"github.com/plateful/platefinder/internal/compliance"
	"github.com/plateful/platefinder/internal/intent"
	"github.com/plateful/platefinder/internal/judge"
	"github.com/plateful/platefinder/internal/recipe"
	"github.com/plateful/platefinder/internal/retrieval"
	"github.com/plateful/platefinder/internal/session"
	"github.com/plateful/platefinder/internal/websearch"
)

// DefaultStageTimeout bounds each stage of a run independently, so one stuck
// provider call cannot eat the whole request deadline.
const DefaultStageTimeout = 2 * time.Minute

// ProgressFunc receives the stage about to run. Used by the serve command to
// stream progress to clients; may be nil.
type ProgressFunc func(stage Stage)

// Request describes one search turn.
type Request struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	// ForceWeb skips the local index and goes straight to web search.
	ForceWeb bool `json:"force_web"`
	// DisableFallback keeps the run on the local index even when the judge
	// rejects everything.
	DisableFallback bool `json:"disable_fallback"`

	Progress ProgressFunc `json:"-"`
}

// SearchResult is the outcome of a completed search run. Accepted may be
// empty: a run where even the web fallback produced nothing the judge would
// accept is a valid terminal state, not an error.
type SearchResult struct {
	RunID    string             `json:"run_id"`
	Intent   *recipe.IntentSpec `json:"intent"`
	Accepted []recipe.Candidate `json:"accepted"`
	Source   recipe.Source      `json:"source"`
	// Exhausted is set when the index matched recipes but every one was
	// already excluded by this session, meaning the local corpus has
	// nothing new to offer for this query.
	Exhausted bool `json:"exhausted"`
}

// AdaptResult carries the proposed variants together with the compliance
// check of each against the adaptation goal. Options and Checks are parallel.
type AdaptResult struct {
	ParentID string                    `json:"parent_id"`
	Goal     string                    `json:"goal"`
	Options  []recipe.AdaptationOption `json:"options"`
	Checks   []compliance.Result       `json:"checks"`
}

// Orchestrator wires the stages together. All methods are safe for
// concurrent use; per-session write ordering is enforced by the session
// manager.
type Orchestrator struct {
	intents   *intent.Extractor
	retriever *retrieval.Retriever
	judge     *judge.Judge
	fallback  *websearch.Searcher
	adapter   *adapter.Adapter
	validator *compliance.Validator
	sessions  *session.Manager
	runLog    *audit.Store

	stageTimeout time.Duration
}

// SetRunLog attaches a run log. Every Search and Adapt call writes one
// entry, failed runs included.
func (o *Orchestrator) SetRunLog(store *audit.Store) {
	o.runLog = store
}

// New creates an Orchestrator. fallback may be nil when no web search
// backend is configured; runs then terminate on the judged index result.
// stageTimeout <= 0 selects DefaultStageTimeout.
func New(
	intents *intent.Extractor,
	retriever *retrieval.Retriever,
	j *judge.Judge,
	fallback *websearch.Searcher,
	a *adapter.Adapter,
	validator *compliance.Validator,
	sessions *session.Manager,
	stageTimeout time.Duration,
) *Orchestrator {
	if stageTimeout <= 0 {
		stageTimeout = DefaultStageTimeout
	}
	return &Orchestrator{
		intents:      intents,
		retriever:    retriever,
		judge:        j,
		fallback:     fallback,
		adapter:      a,
		validator:    validator,
		sessions:     sessions,
		stageTimeout: stageTimeout,
	}
}

// Search runs one corrective search turn: extract intent, query the index,
// judge the candidates, and fall back to the web when the index yields
// nothing acceptable. The completed turn is committed to the session before
// returning; a cancelled context never commits.
func (o *Orchestrator) Search(ctx context.Context, req Request) (*SearchResult, error) {
	start := time.Now()
	res, err := o.search(ctx, req)

	entry := audit.Entry{
		SessionID: req.SessionID,
		Kind:      audit.KindSearch,
		Input:     req.Text,
		Duration:  time.Since(start),
	}
	if res != nil {
		entry.Input = res.Intent.OptimizedQuery
		entry.Source = string(res.Source)
		entry.Results = len(res.Accepted)
	}
	if err != nil {
		entry.Error = err.Error()
	}
	o.logRun(ctx, entry)

	return res, err
}

func (o *Orchestrator) search(ctx context.Context, req Request) (*SearchResult, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("pipeline: session id is required")
	}
	if req.Text == "" {
		return nil, fmt.Errorf("pipeline: request text is empty")
	}
	report(req.Progress, StageIntent)
	spec, err := o.stageIntent(ctx, req.Text)
	if err != nil {
		return nil, wrapStage(StageIntent, err)
	}

	state, err := o.sessions.Snapshot(ctx, req.SessionID)
	if err != nil {
		return nil, wrapStage(StageRecord, err)
	}
	excluded := state.Excluded

	res := &SearchResult{
		RunID:  uuid.NewString(),
		Intent: spec,
		Source: recipe.SourceLocal,
	}

	if !req.ForceWeb {
		report(req.Progress, StageRetrieve)
		candidates, matched := o.stageRetrieve(ctx, spec.OptimizedQuery, excluded)
		res.Exhausted = matched > 0 && len(candidates) == 0

		if len(candidates) > 0 {
			report(req.Progress, StageJudge)
			verdicts, err := o.stageJudge(ctx, candidates, spec)
			if err != nil {
				return nil, wrapStage(StageJudge, err)
			}
			res.Accepted = recipe.Accepted(candidates, verdicts)
		}
	}

	if len(res.Accepted) == 0 && !req.DisableFallback && o.fallback != nil {
		report(req.Progress, StageFallback)
		webCandidates := o.stageFallback(ctx, spec.OptimizedQuery, excluded)
		if err := ctx.Err(); err != nil {
			return nil, wrapStage(StageFallback, err)
		}

		res.Source = recipe.SourceWeb
		if len(webCandidates) > 0 {
			report(req.Progress, StageJudgeWeb)
			verdicts, err := o.stageJudge(ctx, webCandidates, spec)
			if err != nil {
				return nil, wrapStage(StageJudgeWeb, err)
			}
			res.Accepted = recipe.Accepted(webCandidates, verdicts)
		}
	}

	report(req.Progress, StageRecord)
	if err := ctx.Err(); err != nil {
		return nil, wrapStage(StageRecord, err)
	}
	if _, err := o.sessions.RecordSearch(ctx, req.SessionID, res.RunID, spec.OptimizedQuery, res.Source, res.Accepted); err != nil {
		return nil, wrapStage(StageRecord, err)
	}
	return res, nil
}

// Adapt proposes variants of the session's currently selected recipe and
// checks each against the stated goal. The options are committed to the
// adaptation tree so a later Select can promote one of them.
func (o *Orchestrator) Adapt(ctx context.Context, sessionID, goal string, progress ProgressFunc) (*AdaptResult, error) {
	start := time.Now()
	res, err := o.adapt(ctx, sessionID, goal, progress)

	entry := audit.Entry{
		SessionID: sessionID,
		Kind:      audit.KindAdapt,
		Input:     goal,
		Duration:  time.Since(start),
	}
	if res != nil {
		entry.Results = len(res.Options)
	}
	if err != nil {
		entry.Error = err.Error()
	}
	o.logRun(ctx, entry)

	return res, err
}

func (o *Orchestrator) adapt(ctx context.Context, sessionID, goal string, progress ProgressFunc) (*AdaptResult, error) {
	if goal == "" {
		return nil, fmt.Errorf("pipeline: adaptation goal is empty")
	}
	selected, err := o.sessions.Selection(ctx, sessionID)
	if err != nil {
		return nil, wrapStage(StageAdapt, err)
	}

	report(progress, StageAdapt)
	options, err := o.stageAdapt(ctx, selected, goal)
	if err != nil {
		return nil, wrapStage(StageAdapt, err)
	}

	report(progress, StageValidate)
	checks := make([]compliance.Result, len(options))
	for i, opt := range options {
		checks[i] = o.stageValidate(ctx, opt.Candidate, []string{goal})
	}
	if err := ctx.Err(); err != nil {
		return nil, wrapStage(StageValidate, err)
	}

	report(progress, StageRecord)
	if _, err := o.sessions.RecordAdaptations(ctx, sessionID, selected.ID, goal, options); err != nil {
		return nil, wrapStage(StageRecord, err)
	}
	return &AdaptResult{ParentID: selected.ID, Goal: goal, Options: options, Checks: checks}, nil
}

// Select commits a candidate from a prior run or adaptation as the session's
// working recipe and excludes its title from future retrieval.
func (o *Orchestrator) Select(ctx context.Context, sessionID, candidateID string) (*session.State, error) {
	return o.sessions.Select(ctx, sessionID, candidateID)
}

// Reset clears the session. Resetting an unknown session is a no-op.
func (o *Orchestrator) Reset(ctx context.Context, sessionID string) (*session.State, error) {
	return o.sessions.Reset(ctx, sessionID)
}

// Session returns the current state for inspection.
func (o *Orchestrator) Session(ctx context.Context, sessionID string) (*session.State, error) {
	return o.sessions.Snapshot(ctx, sessionID)
}

// Sessions lists recent sessions for resume.
func (o *Orchestrator) Sessions(ctx context.Context, limit int) ([]*session.State, error) {
	return o.sessions.List(ctx, limit)
}

// logRun writes one run log entry. The run itself already finished, so a
// cancelled request context must not suppress the record.
func (o *Orchestrator) logRun(ctx context.Context, entry audit.Entry) {
	if o.runLog == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.runLog.Log(ctx, entry); err != nil {
		log.Printf("pipeline: writing run log: %v", err)
	}
}

func (o *Orchestrator) stageIntent(ctx context.Context, text string) (*recipe.IntentSpec, error) {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	return o.intents.Extract(ctx, text)
}

func (o *Orchestrator) stageRetrieve(ctx context.Context, query string, excluded func(string) bool) ([]recipe.Candidate, int) {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	return o.retriever.Retrieve(ctx, query, excluded)
}

func (o *Orchestrator) stageJudge(ctx context.Context, candidates []recipe.Candidate, spec *recipe.IntentSpec) ([]recipe.Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	return o.judge.Judge(ctx, candidates, spec)
}

func (o *Orchestrator) stageFallback(ctx context.Context, query string, excluded func(string) bool) []recipe.Candidate {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	return o.fallback.Search(ctx, query, excluded)
}

func (o *Orchestrator) stageAdapt(ctx context.Context, selected recipe.Candidate, goal string) ([]recipe.AdaptationOption, error) {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	return o.adapter.Adapt(ctx, selected, goal)
}

func (o *Orchestrator) stageValidate(ctx context.Context, candidate recipe.Candidate, restrictions []string) compliance.Result {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	return o.validator.Validate(ctx, candidate, restrictions)
}

func report(fn ProgressFunc, stage Stage) {
	if fn != nil {
		fn(stage)
	}
}
