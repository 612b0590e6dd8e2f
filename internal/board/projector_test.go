package board

import (
	"testing"
	"time"

	"github.com/pablasso/newsdesk/internal/logging"
	"github.com/pablasso/newsdesk/internal/task"
)

func TestProjector_CachesPerVersion(t *testing.T) {
	p := NewProjector(0, nil)
	first := []task.Task{mk("A", task.StatusNew, day)}

	b1 := p.Project(1, first, now)
	if len(b1.Column(task.StatusNew)) != 1 {
		t.Fatalf("expected one task in new")
	}

	// Same version and no task crossed the cutoff: the cached board is
	// returned even though a different slice is passed.
	b2 := p.Project(1, nil, now.Add(10*time.Second))
	if len(b2.Column(task.StatusNew)) != 1 {
		t.Error("expected cached board for unchanged version")
	}

	// New version recomputes.
	b3 := p.Project(2, nil, now)
	if len(b3.Column(task.StatusNew)) != 0 {
		t.Error("expected recompute for new version")
	}
}

func TestProjector_RecomputesWhenTaskCrossesCutoff(t *testing.T) {
	p := NewProjector(time.Hour, nil)
	tasks := []task.Task{mk("A", task.StatusNew, 59*time.Minute)}

	b := p.Project(1, tasks, now)
	if b.IsOverdue(tasks[0]) {
		t.Fatal("task should not be overdue yet")
	}

	b = p.Project(1, tasks, now.Add(time.Minute))
	if b.IsOverdue(tasks[0]) {
		t.Error("task exactly at the limit is not overdue")
	}

	b = p.Project(1, tasks, now.Add(time.Minute+time.Second))
	if !b.IsOverdue(tasks[0]) {
		t.Error("task should become overdue once it passes the limit")
	}
}

func TestProjector_CutoffUsesExactTime(t *testing.T) {
	p := NewProjector(0, nil)
	at := now.Add(50 * time.Second)
	late := task.Task{ID: "A", Status: task.StatusNew, StatusChangedAt: at.Add(-task.OverdueAfter - 20*time.Second)}
	tasks := []task.Task{late, mk("B", task.StatusNew, time.Hour)}

	// Prime the cache earlier in the same minute, before A crossed.
	if b := p.Project(1, tasks, now); b.IsOverdue(late) {
		t.Fatal("A should not be overdue at the top of the minute")
	}

	b := p.Project(1, tasks, at)
	if want := at.Add(-task.OverdueAfter); !b.Cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", b.Cutoff, want)
	}
	if !b.IsOverdue(late) {
		t.Error("A changed more than three days before now and should be overdue")
	}
	if got := Summarize(b).Overdue[task.StatusNew]; got != 1 {
		t.Errorf("overdue in new = %d, want 1", got)
	}
}

func TestProjector_CachedBoardCarriesCurrentCutoff(t *testing.T) {
	p := NewProjector(0, nil)
	tasks := []task.Task{mk("A", task.StatusNew, day)}

	p.Project(1, tasks, now)
	later := now.Add(30 * time.Second)
	b := p.Project(1, nil, later)

	if b.Len() != 1 {
		t.Fatal("expected the cached board")
	}
	if want := later.Add(-task.OverdueAfter); !b.Cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", b.Cutoff, want)
	}
}

func TestProjector_Invalidate(t *testing.T) {
	p := NewProjector(0, nil)
	p.Project(1, []task.Task{mk("A", task.StatusNew, day)}, now)
	p.Invalidate()

	b := p.Project(1, nil, now)
	if b.Len() != 0 {
		t.Error("expected recompute after Invalidate")
	}
}

type recordingLogger struct {
	warns  []string
	fields []map[string]any
}

func (l *recordingLogger) Debug(string, ...any)      {}
func (l *recordingLogger) Info(string, ...any)       {}
func (l *recordingLogger) Warn(msg string, _ ...any) { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(string, ...any)      {}
func (l *recordingLogger) WithFields(f map[string]any) logging.Logger {
	l.fields = append(l.fields, f)
	return l
}

func TestProjector_LogsUnknownStatusesOnce(t *testing.T) {
	log := &recordingLogger{}
	p := NewProjector(0, log)
	tasks := []task.Task{mk("ghost", "archived", day)}

	p.Project(1, tasks, now)
	p.Project(1, tasks, now)

	if len(log.warns) != 1 {
		t.Fatalf("expected one warning, got %d", len(log.warns))
	}
	if log.fields[0]["count"] != 1 {
		t.Errorf("expected count field 1, got %v", log.fields[0]["count"])
	}
}
