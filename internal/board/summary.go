package board

import "github.com/pablasso/newsdesk/internal/task"

// WIPStages are the stages counted as work in progress.
var WIPStages = []task.Status{
	task.StatusNew,
	task.StatusInProgress,
	task.StatusEditorReview,
	task.StatusClientApproval,
}

// Summary is a count-level overview of a board.
type Summary struct {
	Counts     map[task.Status]int
	Overdue    map[task.Status]int
	WIP        int
	OverdueWIP int
	Unknown    int
	Total      int
}

// Summarize counts tasks per stage and overdue tasks per stage.
func Summarize(b Board) Summary {
	s := Summary{
		Counts:  make(map[task.Status]int, len(task.Stages)),
		Overdue: make(map[task.Status]int, len(task.Stages)),
		Unknown: len(b.Unknown),
	}

	for _, stage := range task.Stages {
		col := b.Column(stage)
		s.Counts[stage] = len(col)
		for _, t := range col {
			if b.IsOverdue(t) {
				s.Overdue[stage]++
			}
		}
		s.Total += len(col)
	}

	for _, stage := range WIPStages {
		s.WIP += s.Counts[stage]
		s.OverdueWIP += s.Overdue[stage]
	}
	return s
}
