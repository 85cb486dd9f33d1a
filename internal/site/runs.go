package site

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joelkehle/b2g-transformer/internal/store"
	"github.com/joelkehle/b2g-transformer/internal/valuation"
)

// Event is one status transition of a run, as streamed to subscribers.
type Event struct {
	Seq     int              `json:"seq"`
	RunID   string           `json:"run_id"`
	Status  valuation.Status `json:"status"`
	Message string           `json:"message"`
	Run     *valuation.Run   `json:"run,omitempty"`
}

type runEntry struct {
	run    valuation.Run
	events []Event
	subs   map[chan Event]struct{}
}

// RunStore keeps live runs in memory and writes every change through to the
// repository. The oldest terminal runs are evicted once maxRuns is exceeded.
type RunStore struct {
	mu      sync.RWMutex
	runs    map[string]*runEntry
	order   []string
	maxRuns int
	repo    store.RunRepository
	logger  zerolog.Logger
	now     func() time.Time
}

func NewRunStore(repo store.RunRepository, maxRuns int, logger zerolog.Logger) *RunStore {
	if maxRuns <= 0 {
		maxRuns = 200
	}
	return &RunStore{
		runs:    make(map[string]*runEntry),
		maxRuns: maxRuns,
		repo:    repo,
		logger:  logger,
		now:     time.Now,
	}
}

func newRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (s *RunStore) Create(ctx context.Context, req valuation.Request) valuation.Run {
	now := s.now().UTC()
	run := valuation.Run{
		ID:        newRunID(),
		Request:   req,
		Status:    valuation.StatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.runs[run.ID] = &runEntry{run: run, subs: make(map[chan Event]struct{})}
	s.order = append(s.order, run.ID)
	s.evictLocked()
	s.mu.Unlock()
	s.persist(ctx, run)
	return run
}

// Get looks in memory first and falls back to the repository for runs from
// earlier processes.
func (s *RunStore) Get(ctx context.Context, id string) (valuation.Run, error) {
	s.mu.RLock()
	e, ok := s.runs[id]
	var run valuation.Run
	if ok {
		run = e.run
	}
	s.mu.RUnlock()
	if ok {
		return run, nil
	}
	if s.repo == nil {
		return valuation.Run{}, store.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns recent runs newest first.
func (s *RunStore) List(ctx context.Context, limit int) ([]valuation.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.repo != nil {
		return s.repo.ListRecent(ctx, limit)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]valuation.Run, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.runs[s.order[i]].run)
	}
	return out, nil
}

// SetStatus records a stage transition.
func (s *RunStore) SetStatus(ctx context.Context, id string, status valuation.Status, message string) {
	s.update(ctx, id, message, func(run *valuation.Run) {
		run.Status = status
	})
}

func (s *RunStore) Complete(ctx context.Context, id string, res valuation.Result) {
	s.update(ctx, id, valuation.StageMessage(valuation.StatusComplete), func(run *valuation.Run) {
		completed := res.CompletedAt.UTC()
		run.Status = valuation.StatusComplete
		run.Source = res.Source
		run.AttachReport(res.Report)
		run.CompletedAt = &completed
	})
}

func (s *RunStore) Fail(ctx context.Context, id string, reason string) {
	s.update(ctx, id, valuation.StageMessage(valuation.StatusError), func(run *valuation.Run) {
		completed := s.now().UTC()
		run.Status = valuation.StatusError
		run.Error = reason
		run.CompletedAt = &completed
	})
}

func (s *RunStore) update(ctx context.Context, id, message string, mutate func(*valuation.Run)) {
	s.mu.Lock()
	e, ok := s.runs[id]
	if !ok || e.run.Status.Terminal() {
		s.mu.Unlock()
		return
	}
	prev := e.run.Status
	mutate(&e.run)
	if e.run.Status == prev {
		s.mu.Unlock()
		return
	}
	e.run.UpdatedAt = s.now().UTC()
	evt := Event{Seq: len(e.events) + 1, RunID: id, Status: e.run.Status, Message: message}
	if e.run.Status.Terminal() {
		snapshot := e.run
		evt.Run = &snapshot
	}
	e.events = append(e.events, evt)
	for ch := range e.subs {
		select {
		case ch <- evt:
		default:
			s.logger.Warn().Str("run_id", id).Msg("subscriber buffer full, dropping event")
		}
		if e.run.Status.Terminal() {
			close(ch)
			delete(e.subs, ch)
		}
	}
	run := e.run
	s.mu.Unlock()
	s.persist(ctx, run)
}

// Subscribe replays the events recorded so far and then streams new ones.
// The channel is closed after the terminal event.
func (s *RunStore) Subscribe(id string) (<-chan Event, func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.runs[id]
	if !ok {
		return nil, func() {}, false
	}
	ch := make(chan Event, len(e.events)+len(valuation.StageOrder)+1)
	for _, evt := range e.events {
		ch <- evt
	}
	if e.run.Status.Terminal() {
		close(ch)
		return ch, func() {}, true
	}
	e.subs[ch] = struct{}{}
	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := e.subs[ch]; ok {
			delete(e.subs, ch)
			close(ch)
		}
	}
	return ch, cancel, true
}

// Wait blocks until the run reaches a terminal status or ctx ends.
func (s *RunStore) Wait(ctx context.Context, id string) (valuation.Run, error) {
	ch, cancel, ok := s.Subscribe(id)
	if !ok {
		return valuation.Run{}, store.ErrNotFound
	}
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return valuation.Run{}, ctx.Err()
		case _, open := <-ch:
			if !open {
				return s.Get(ctx, id)
			}
		}
	}
}

// InterruptedReason is recorded on runs a previous process left unfinished.
const InterruptedReason = "valuation interrupted by server restart"

// RecoverInterrupted fails persisted runs that an earlier process never
// finished. Call it once at startup, before serving.
func (s *RunStore) RecoverInterrupted(ctx context.Context) (int64, error) {
	if s.repo == nil {
		return 0, nil
	}
	return s.repo.MarkInterrupted(ctx, InterruptedReason, s.now().UTC())
}

func (s *RunStore) evictLocked() {
	for len(s.order) > s.maxRuns {
		evicted := false
		for i, id := range s.order {
			if s.runs[id].run.Status.Terminal() {
				delete(s.runs, id)
				s.order = append(s.order[:i], s.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}

func (s *RunStore) persist(ctx context.Context, run valuation.Run) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Save(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Error().Err(err).Str("run_id", run.ID).Msg("persist run")
	}
}
