// Package store owns the local task list and keeps it in step with the backend.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pablasso/newsdesk/internal/board"
	"github.com/pablasso/newsdesk/internal/logging"
	"github.com/pablasso/newsdesk/internal/task"
)

// Backend is the subset of the API client the store needs.
type Backend interface {
	ListTasks(ctx context.Context, filters task.Filters) ([]task.Task, error)
	GetTask(ctx context.Context, id string) (task.Task, error)
	CreateTask(ctx context.Context, req task.CreateRequest) (task.Task, error)
	UpdateTask(ctx context.Context, id string, req task.UpdateRequest) (task.Task, error)
	ChangeStatus(ctx context.Context, id string, change task.StatusChange) (task.Task, error)
	TakeTask(ctx context.Context, id string) (task.Task, error)
	UndoTask(ctx context.Context, id string) (task.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Store is the single source of truth for the current task list.
type Store struct {
	backend   Backend
	logger    logging.Logger
	projector *board.Projector
	locks     *keyedMutex

	// loadSeq numbers Load calls as they are issued.
	loadSeq atomic.Uint64

	mu          sync.RWMutex
	tasks       []task.Task
	filters     task.Filters
	version     uint64
	loadApplied uint64
	listeners   map[int]Listener
	nextID      int

	// local holds changes committed while a load may have been in flight.
	local map[string]localChange
}

// localChange is a single-task commit stamped with the last issued load
// generation at the time it was applied.
type localChange struct {
	seq     uint64
	task    task.Task
	created bool
	deleted bool
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	logger       logging.Logger
	overdueAfter time.Duration
}

// WithLogger sets the store logger.
func WithLogger(l logging.Logger) Option {
	return func(o *storeOptions) { o.logger = l }
}

// WithOverdueAfter overrides how long a task may stay in one stage.
func WithOverdueAfter(d time.Duration) Option {
	return func(o *storeOptions) { o.overdueAfter = d }
}

// New creates an empty store backed by b.
func New(b Backend, opts ...Option) *Store {
	o := storeOptions{overdueAfter: task.OverdueAfter}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrNoOp(o.logger)

	return &Store{
		backend:   b,
		logger:    logger,
		projector: board.NewProjector(o.overdueAfter, logger),
		locks:     newKeyedMutex(),
		tasks:     []task.Task{},
		listeners: make(map[int]Listener),
		local:     make(map[string]localChange),
	}
}

// Load fetches tasks matching filters and replaces the local list. A response
// that arrives after a newer load has already been applied is discarded, and
// single-task changes committed after this load was issued are kept.
func (s *Store) Load(ctx context.Context, filters task.Filters) error {
	gen := s.loadSeq.Add(1)

	tasks, err := s.backend.ListTasks(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	s.mu.Lock()
	if gen < s.loadApplied {
		s.mu.Unlock()
		s.logger.Debug("discarding stale load", "generation", gen, "applied", s.loadApplied)
		return nil
	}
	s.loadApplied = gen
	s.tasks = s.reconcile(tasks, gen)
	s.filters = filters
	notify := s.commit(Event{Kind: EventLoaded})
	s.mu.Unlock()

	s.logger.Debug("tasks loaded", "count", len(tasks))
	notify()
	return nil
}

// Reload repeats the last Load with the same filters.
func (s *Store) Reload(ctx context.Context) error {
	return s.Load(ctx, s.Filters())
}

// Fetch reads a single task from the backend and stores it locally,
// replacing any existing entry.
func (s *Store) Fetch(ctx context.Context, id string) (task.Task, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	t, err := s.backend.GetTask(ctx, id)
	if err != nil {
		return task.Task{}, err
	}
	s.upsert(t, EventUpdated)
	return t, nil
}

// Create posts a new task and appends the result.
func (s *Store) Create(ctx context.Context, req task.CreateRequest) (task.Task, error) {
	created, err := s.backend.CreateTask(ctx, req)
	if err != nil {
		return task.Task{}, err
	}

	s.upsert(created, EventCreated)
	s.logger.Debug("task created", "task_id", created.ID)
	return created, nil
}

// UpdateTask applies a partial update.
func (s *Store) UpdateTask(ctx context.Context, id string, req task.UpdateRequest) (task.Task, error) {
	return s.mutate(id, "update", func() (task.Task, error) {
		return s.backend.UpdateTask(ctx, id, req)
	})
}

// ChangeStatus moves a task to another stage. When the task is known locally
// the comment rule for backward and lateral moves is checked first.
func (s *Store) ChangeStatus(ctx context.Context, id string, change task.StatusChange) (task.Task, error) {
	return s.mutate(id, "status", func() (task.Task, error) {
		if current, ok := s.Find(id); ok {
			if err := change.ValidateFrom(current.Status); err != nil {
				return task.Task{}, err
			}
		}
		return s.backend.ChangeStatus(ctx, id, change)
	})
}

// Take assigns the current user as author and starts the task.
func (s *Store) Take(ctx context.Context, id string) (task.Task, error) {
	return s.mutate(id, "take", func() (task.Task, error) {
		return s.backend.TakeTask(ctx, id)
	})
}

// Undo reverts the last status change of a task.
func (s *Store) Undo(ctx context.Context, id string) (task.Task, error) {
	return s.mutate(id, "undo", func() (task.Task, error) {
		return s.backend.UndoTask(ctx, id)
	})
}

// Delete removes the task on the backend, then locally.
func (s *Store) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.backend.DeleteTask(ctx, id); err != nil {
		return err
	}

	s.logger.Debug("task deleted", "task_id", id)
	s.Evict(id)
	return nil
}

// Evict drops a task from the local list without contacting the backend.
// It reports whether the task was present.
func (s *Store) Evict(id string) bool {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks = slices.Delete(s.tasks, idx, idx+1)
	s.record(localChange{task: task.Task{ID: id}, deleted: true})
	notify := s.commit(Event{Kind: EventDeleted, TaskID: id})
	s.mu.Unlock()

	notify()
	return true
}

// Find returns the local copy of a task.
func (s *Store) Find(id string) (task.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.tasks[idx], true
	}
	return task.Task{}, false
}

// Snapshot returns a copy of the current list and its version.
func (s *Store) Snapshot() ([]task.Task, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks), s.version
}

// Version returns the number of committed changes.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Filters returns the filters of the last applied load.
func (s *Store) Filters() task.Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// Board returns the projection of the current list as of now.
func (s *Store) Board(now time.Time) board.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projector.Project(s.version, s.tasks, now)
}

// mutate serializes a single-task request and replaces the local entry with
// the backend's response.
func (s *Store) mutate(id, op string, call func() (task.Task, error)) (task.Task, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	updated, err := call()
	if err != nil {
		s.logger.Debug("task mutation failed", "op", op, "task_id", id, "error", err)
		return task.Task{}, err
	}

	s.mu.Lock()
	s.record(localChange{task: updated})
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		s.logger.Debug("mutated task not in local list", "op", op, "task_id", id)
		return updated, nil
	}
	s.tasks[idx] = updated
	notify := s.commit(Event{Kind: EventUpdated, TaskID: id})
	s.mu.Unlock()

	notify()
	return updated, nil
}

func (s *Store) upsert(t task.Task, kind EventKind) {
	s.mu.Lock()
	s.record(localChange{task: t, created: kind == EventCreated})
	if idx := s.indexOf(t.ID); idx >= 0 {
		s.tasks[idx] = t
	} else {
		s.tasks = append(s.tasks, t)
	}
	notify := s.commit(Event{Kind: kind, TaskID: t.ID})
	s.mu.Unlock()

	notify()
}

// record stamps a single-task change with the newest issued load generation.
// Callers hold s.mu.
func (s *Store) record(ch localChange) {
	ch.seq = s.loadSeq.Load()
	if prev, ok := s.local[ch.task.ID]; ok && prev.created && !ch.deleted {
		ch.created = true
	}
	s.local[ch.task.ID] = ch
}

// reconcile builds the list for load gen. Changes stamped before gen was
// issued are already reflected by the backend and are forgotten; later ones
// are applied over the loaded tasks. Callers hold s.mu.
func (s *Store) reconcile(loaded []task.Task, gen uint64) []task.Task {
	out := slices.Clone(loaded)
	for id, ch := range s.local {
		if ch.seq < gen {
			delete(s.local, id)
			continue
		}
		idx := slices.IndexFunc(out, func(t task.Task) bool { return t.ID == id })
		switch {
		case ch.deleted:
			if idx >= 0 {
				out = slices.Delete(out, idx, idx+1)
			}
		case idx >= 0:
			out[idx] = ch.task
		case ch.created:
			out = append(out, ch.task)
		}
	}
	return out
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.tasks, func(t task.Task) bool { return t.ID == id })
}
