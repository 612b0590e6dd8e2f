package task

import (
	"errors"
	"testing"
	"time"
)

func TestStages_CanonicalOrder(t *testing.T) {
	expected := []Status{
		"new", "in_progress", "editor_review", "client_approval",
		"client_approved", "sent_to_media", "published", "postponed",
	}
	if len(Stages) != len(expected) {
		t.Fatalf("expected %d stages, got %d", len(expected), len(Stages))
	}
	for i, s := range expected {
		if Stages[i] != s {
			t.Errorf("stage %d = %q, want %q", i, Stages[i], s)
		}
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("editor_review")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != StatusEditorReview {
		t.Errorf("got %q, want %q", s, StatusEditorReview)
	}

	_, err = ParseStatus("archived")
	var unknown *UnknownStatusError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownStatusError, got %v", err)
	}
	if unknown.Status != "archived" {
		t.Errorf("expected status archived in error, got %q", unknown.Status)
	}
}

func TestIsForwardMove(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusNew, StatusInProgress, true},
		{StatusSentToMedia, StatusPublished, true},
		{StatusNew, StatusEditorReview, false},
		{StatusEditorReview, StatusInProgress, false},
		{StatusInProgress, StatusInProgress, false},
		{StatusInProgress, StatusPostponed, false},
		{StatusPostponed, StatusInProgress, false},
		{Status("legacy"), StatusInProgress, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			if got := IsForwardMove(tc.from, tc.to); got != tc.want {
				t.Errorf("IsForwardMove(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestStatus_NextAndPrevious(t *testing.T) {
	next, ok := StatusClientApproved.Next()
	if !ok || next != StatusSentToMedia {
		t.Errorf("Next() = %q, %v; want sent_to_media, true", next, ok)
	}
	if _, ok := StatusPublished.Next(); ok {
		t.Error("published should have no next stage")
	}
	if _, ok := StatusPostponed.Next(); ok {
		t.Error("postponed should have no next stage")
	}

	prev, ok := StatusEditorReview.Previous()
	if !ok || prev != StatusInProgress {
		t.Errorf("Previous() = %q, %v; want in_progress, true", prev, ok)
	}
	if _, ok := StatusNew.Previous(); ok {
		t.Error("new should have no previous stage")
	}
}

func TestStatus_Label(t *testing.T) {
	if got := StatusSentToMedia.Label(); got != "Sent to media" {
		t.Errorf("got %q", got)
	}
	if got := Status("mystery").Label(); got != "mystery" {
		t.Errorf("unknown status should render raw, got %q", got)
	}
}

func TestTask_IsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	old := Task{StatusChangedAt: now.Add(-4 * 24 * time.Hour)}
	if !old.IsOverdue(now, OverdueAfter) {
		t.Error("task changed 4 days ago should be overdue")
	}

	fresh := Task{StatusChangedAt: now.Add(-2 * 24 * time.Hour)}
	if fresh.IsOverdue(now, OverdueAfter) {
		t.Error("task changed 2 days ago should not be overdue")
	}

	edge := Task{StatusChangedAt: now.Add(-OverdueAfter)}
	if edge.IsOverdue(now, OverdueAfter) {
		t.Error("task changed exactly at the cutoff should not be overdue")
	}
}
