package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pablasso/newsdesk/internal/board"
	"github.com/pablasso/newsdesk/internal/task"
	"github.com/pablasso/newsdesk/internal/util"
)

const titleWidth = 48

// formatAge returns a human-readable relative time string.
func formatAge(t time.Time) string {
	return util.FormatAge(time.Since(t))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func overdueMark(overdue bool) string {
	if overdue {
		return "!"
	}
	return ""
}

// printTaskTable writes tasks as an aligned table.
func printTaskTable(out io.Writer, tasks []task.Task, overdueAfter time.Duration) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTITLE\tCLIENT\tAUTHOR\tIN STAGE\t")

	now := time.Now()
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s%s\t\n",
			util.ShortID(t.ID),
			t.Status,
			util.Truncate(t.Title, titleWidth),
			orDash(t.ClientName()),
			orDash(t.AuthorName()),
			formatAge(t.StatusChangedAt),
			overdueMark(t.IsOverdue(now, overdueAfter)),
		)
	}
	return w.Flush()
}

// printBoard writes each pipeline column with its tasks in display order.
func printBoard(out io.Writer, b board.Board) error {
	for _, stage := range task.Stages {
		col := b.Column(stage)
		fmt.Fprintf(out, "== %s (%d) ==\n", stage.Label(), len(col))
		if len(col) == 0 {
			fmt.Fprintln(out)
			continue
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, t := range col {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s%s\t\n",
				overdueMark(b.IsOverdue(t)),
				util.ShortID(t.ID),
				util.Truncate(t.Title, titleWidth),
				formatAge(t.StatusChangedAt),
				authorSuffix(t),
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	if len(b.Unknown) > 0 {
		fmt.Fprintf(out, "== Unrecognized status (%d) ==\n", len(b.Unknown))
		for _, t := range b.Unknown {
			fmt.Fprintf(out, "%s  %s  [%s]\n", util.ShortID(t.ID), util.Truncate(t.Title, titleWidth), t.Status)
		}
	}
	return nil
}

func authorSuffix(t task.Task) string {
	if name := t.AuthorName(); name != "" {
		return ", " + name
	}
	return ""
}

// printSummary writes per-stage counts followed by WIP totals.
func printSummary(out io.Writer, s board.Summary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tTASKS\tOVERDUE\t")
	for _, stage := range task.Stages {
		fmt.Fprintf(w, "%s\t%d\t%d\t\n", stage.Label(), s.Counts[stage], s.Overdue[stage])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nIn progress: %d (%d overdue)\n", s.WIP, s.OverdueWIP)
	fmt.Fprintf(out, "Total: %d\n", s.Total)
	if s.Unknown > 0 {
		fmt.Fprintf(out, "Unrecognized status: %d\n", s.Unknown)
	}
	return nil
}

// printTaskDetail writes every populated field of t.
func printTaskDetail(out io.Writer, t task.Task, overdueAfter time.Duration) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "%s:\t%s\n", label, value)
		}
	}

	row("ID", t.ID)
	row("Title", t.Title)
	row("Status", fmt.Sprintf("%s (%s)", t.Status.Label(), t.Status))
	age := formatAge(t.StatusChangedAt)
	if t.IsOverdue(time.Now(), overdueAfter) {
		age += " (overdue)"
	}
	row("In stage since", age)
	row("Type", string(t.Type))
	row("Language", string(t.Language))
	row("Iteration", fmt.Sprintf("%d", t.Iteration))
	row("Client", t.ClientName())
	if t.Media != nil {
		row("Media", t.Media.Name)
	}
	row("Author", t.AuthorName())
	if t.Editor != nil {
		row("Editor", t.Editor.FullName())
	}
	if t.Manager != nil {
		row("Manager", t.Manager.FullName())
	}
	row("Description", t.Description)
	row("Google Doc", t.GoogleDocURL)
	row("Google Forms", t.GoogleFormsURL)
	row("Postponed because", t.PostponeReason)
	row("Resume on", t.PostponeResumeDate)
	row("Publication URL", t.PublicationURL)
	row("Publication date", t.PublicationDate)
	row("Client gratitude", t.ClientGratitude)
	row("Sent to", t.SentToWhom)
	row("Sent via", t.SentMethod)
	if !t.CreatedAt.IsZero() {
		row("Created", t.CreatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}
