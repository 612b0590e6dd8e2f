package board

import (
	"sync"
	"time"

	"github.com/pablasso/newsdesk/internal/logging"
	"github.com/pablasso/newsdesk/internal/task"
)

// Projector caches the projection of the current store version. A cached
// board is reused until the list changes or the next task crosses the overdue
// cutoff, so overdue markers stay exact as time passes.
type Projector struct {
	overdueAfter time.Duration
	logger       logging.Logger

	mu       sync.Mutex
	valid    bool
	version  uint64
	from     time.Time
	until    time.Time
	hasUntil bool
	board    Board
}

// NewProjector creates a projector using overdueAfter as the overdue limit.
func NewProjector(overdueAfter time.Duration, logger logging.Logger) *Projector {
	if overdueAfter <= 0 {
		overdueAfter = task.OverdueAfter
	}
	return &Projector{
		overdueAfter: overdueAfter,
		logger:       logging.OrNoOp(logger),
	}
}

// Project returns the board for tasks at version as of now, recomputing only
// when the version changed or a task became overdue since the last compute.
// The returned board's cutoff is always derived from now.
func (p *Projector) Project(version uint64, tasks []task.Task, now time.Time) Board {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.valid && p.version == version && p.covers(now) {
		b := p.board
		b.Cutoff = now.Add(-p.overdueAfter)
		return b
	}

	b := ProjectWithin(tasks, now, p.overdueAfter)
	if len(b.Unknown) > 0 {
		p.reportUnknown(b.Unknown)
	}

	p.valid = true
	p.version = version
	p.from = now
	p.until, p.hasUntil = p.nextCrossing(b)
	p.board = b
	return b
}

func (p *Projector) covers(now time.Time) bool {
	if now.Before(p.from) {
		return false
	}
	return !p.hasUntil || !now.After(p.until)
}

// nextCrossing returns the last instant at which no task of b that is on time
// has become overdue yet.
func (p *Projector) nextCrossing(b Board) (time.Time, bool) {
	var until time.Time
	found := false
	for _, col := range b.Columns {
		for _, t := range col {
			if b.IsOverdue(t) {
				continue
			}
			at := t.StatusChangedAt.Add(p.overdueAfter)
			if !found || at.Before(until) {
				until, found = at, true
			}
		}
	}
	return until, found
}

// Invalidate drops the cached board.
func (p *Projector) Invalidate() {
	p.mu.Lock()
	p.valid = false
	p.board = Board{}
	p.mu.Unlock()
}

func (p *Projector) reportUnknown(unknown []task.Task) {
	statuses := make(map[string][]string)
	for _, t := range unknown {
		statuses[string(t.Status)] = append(statuses[string(t.Status)], t.ID)
	}
	p.logger.WithFields(map[string]any{
		"count":    len(unknown),
		"statuses": statuses,
	}).Warn("tasks with unknown status left off the board")
}
