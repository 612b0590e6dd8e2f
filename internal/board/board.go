// Package board groups tasks into pipeline columns for display.
package board

import (
	"slices"
	"time"

	"github.com/pablasso/newsdesk/internal/task"
)

// Board is a projection of a task list onto the pipeline stages.
// Boards returned by a Projector are shared; treat them as read-only.
type Board struct {
	Columns map[task.Status][]task.Task
	// Unknown holds tasks whose status is not a pipeline stage.
	Unknown []task.Task
	// Cutoff is the instant before which a status change counts as overdue.
	Cutoff time.Time
}

// Column returns the tasks in stage s, in display order.
func (b Board) Column(s task.Status) []task.Task {
	return b.Columns[s]
}

// Len returns the number of tasks placed in columns.
func (b Board) Len() int {
	n := 0
	for _, col := range b.Columns {
		n += len(col)
	}
	return n
}

// IsOverdue reports whether t is overdue relative to the board's cutoff.
func (b Board) IsOverdue(t task.Task) bool {
	return t.StatusChangedAt.Before(b.Cutoff)
}

// Project groups tasks by stage using the default overdue limit.
func Project(tasks []task.Task, now time.Time) Board {
	return ProjectWithin(tasks, now, task.OverdueAfter)
}

// ProjectWithin groups tasks by stage. Inside each column overdue tasks come
// first, then tasks are ordered by status_changed_at, oldest first. Tasks with
// an unknown status are collected in Unknown.
func ProjectWithin(tasks []task.Task, now time.Time, overdueAfter time.Duration) Board {
	if overdueAfter <= 0 {
		overdueAfter = task.OverdueAfter
	}

	b := Board{
		Columns: make(map[task.Status][]task.Task, len(task.Stages)),
		Cutoff:  now.Add(-overdueAfter),
	}
	for _, stage := range task.Stages {
		b.Columns[stage] = []task.Task{}
	}

	for _, t := range tasks {
		col, ok := b.Columns[t.Status]
		if !ok {
			b.Unknown = append(b.Unknown, t)
			continue
		}
		b.Columns[t.Status] = append(col, t)
	}

	for stage, col := range b.Columns {
		slices.SortStableFunc(col, func(x, y task.Task) int {
			xOverdue := x.StatusChangedAt.Before(b.Cutoff)
			yOverdue := y.StatusChangedAt.Before(b.Cutoff)
			if xOverdue != yOverdue {
				if xOverdue {
					return -1
				}
				return 1
			}
			return x.StatusChangedAt.Compare(y.StatusChangedAt)
		})
		b.Columns[stage] = col
	}

	return b
}
