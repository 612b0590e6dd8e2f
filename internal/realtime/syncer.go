package realtime

import (
	"context"
	"sync/atomic"

	"github.com/pablasso/newsdesk/internal/logging"
)

// Reloader is the store surface the syncer drives.
type Reloader interface {
	Reload(ctx context.Context) error
	Evict(id string) bool
}

// Syncer turns board messages into store reloads. A burst of messages
// produces at most one pending reload.
type Syncer struct {
	store   Reloader
	logger  logging.Logger
	pending chan struct{}

	// reconnected is set once a connection drops so the next connect reloads.
	reconnected atomic.Bool
	// OnReload, when set, is called after every reload attempt.
	OnReload func(err error)
}

// NewSyncer creates a syncer for store.
func NewSyncer(store Reloader, logger logging.Logger) *Syncer {
	return &Syncer{
		store:   store,
		logger:  logging.OrNoOp(logger),
		pending: make(chan struct{}, 1),
	}
}

// OnMessage implements Events.
func (s *Syncer) OnMessage(msg Message) {
	if msg.Type == TypeTaskDeleted && msg.TaskID != "" {
		if s.store.Evict(msg.TaskID) {
			s.logger.Debug("evicted deleted task", "task_id", msg.TaskID)
		}
		return
	}
	if msg.IsTaskChange() {
		s.Trigger()
	}
}

// OnStateChange implements Events. Events missed while the socket was down
// are recovered with a reload once it is back.
func (s *Syncer) OnStateChange(state State) {
	switch state {
	case StateReconnecting:
		s.reconnected.Store(true)
	case StateConnected:
		if s.reconnected.Swap(false) {
			s.Trigger()
		}
	}
}

// Trigger schedules a reload unless one is already pending.
func (s *Syncer) Trigger() {
	select {
	case s.pending <- struct{}{}:
	default:
	}
}

// Run performs scheduled reloads until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.pending:
			err := s.store.Reload(ctx)
			if err != nil && ctx.Err() == nil {
				s.logger.Warn("board reload failed", "error", err)
			}
			if s.OnReload != nil {
				s.OnReload(err)
			}
		}
	}
}
