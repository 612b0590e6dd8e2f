package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/pablasso/newsdesk/internal/store"
	"github.com/pablasso/newsdesk/internal/task"
	"github.com/pablasso/newsdesk/internal/util"
	"github.com/spf13/cobra"
)

// filterFlags are the list filters shared by tasks list, board, stats and watch.
type filterFlags struct {
	status  string
	author  string
	editor  string
	manager string
	client  string
	media   string
	search  string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "", "only tasks in this stage")
	cmd.Flags().StringVar(&f.author, "author", "", "author user id")
	cmd.Flags().StringVar(&f.editor, "editor", "", "editor user id")
	cmd.Flags().StringVar(&f.manager, "manager", "", "manager user id")
	cmd.Flags().StringVar(&f.client, "client", "", "client id")
	cmd.Flags().StringVar(&f.media, "media", "", "media id")
	cmd.Flags().StringVar(&f.search, "search", "", "text in title or description")
}

func (f *filterFlags) build() (task.Filters, error) {
	filters := task.Filters{
		AuthorID:  f.author,
		EditorID:  f.editor,
		ManagerID: f.manager,
		ClientID:  f.client,
		MediaID:   f.media,
		Search:    f.search,
	}
	if f.status != "" {
		status, err := task.ParseStatus(f.status)
		if err != nil {
			return task.Filters{}, err
		}
		filters.Status = status
	}

	for flag, value := range map[string]string{
		"author":  f.author,
		"editor":  f.editor,
		"manager": f.manager,
		"client":  f.client,
		"media":   f.media,
	} {
		if value != "" && !util.IsUUID(value) {
			return task.Filters{}, fmt.Errorf("invalid --%s %q: must be a UUID", flag, value)
		}
	}
	return filters, nil
}

// resolveID accepts a full task id or a unique prefix of one.
func resolveID(ctx context.Context, s *store.Store, arg string) (string, error) {
	if util.IsUUID(arg) {
		return arg, nil
	}
	if err := s.Load(ctx, task.Filters{}); err != nil {
		return "", err
	}

	tasks, _ := s.Snapshot()
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}

	match, count := util.MatchPrefix(ids, arg)
	switch {
	case count == 0:
		return "", fmt.Errorf("no task matches %q", arg)
	case count > 1:
		return "", fmt.Errorf("%q is ambiguous: %d tasks match", arg, count)
	}
	return match, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTasksCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "List and change tasks",
		Long:    `Commands for listing, creating and moving tasks through the editorial pipeline.`,
	}
	cmd.AddCommand(
		newTasksListCmd(e),
		newTasksShowCmd(e),
		newTasksCreateCmd(e),
		newTasksUpdateCmd(e),
		newTasksStatusCmd(e),
		newTaskActionCmd(e, "take", "Take a new task as author and start it", func(ctx context.Context, s *store.Store, id string) (task.Task, error) {
			return s.Take(ctx, id)
		}),
		newTaskActionCmd(e, "undo", "Undo the last status change (within 20 seconds)", func(ctx context.Context, s *store.Store, id string) (task.Task, error) {
			return s.Undo(ctx, id)
		}),
		newTasksDeleteCmd(e),
	)
	return cmd
}

func newTasksListCmd(e *env) *cobra.Command {
	var (
		filters filterFlags
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filters.build()
			if err != nil {
				return err
			}
			a, err := e.load()
			if err != nil {
				return err
			}

			s := a.NewStore()
			if err := s.Load(cmd.Context(), f); err != nil {
				return err
			}
			tasks, _ := s.Snapshot()

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, tasks)
			}
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks.")
				return nil
			}
			return printTaskTable(out, tasks, a.Config.OverdueAfter)
		},
	}

	filters.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTasksShowCmd(e *env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load()
			if err != nil {
				return err
			}
			s := a.NewStore()
			id, err := resolveID(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			t, err := s.Fetch(cmd.Context(), id)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), t)
			}
			return printTaskDetail(cmd.OutOrStdout(), t, a.Config.OverdueAfter)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// taskFields are the editable fields shared by create and update.
type taskFields struct {
	title       string
	client      string
	taskType    string
	language    string
	description string
	media       string
	author      string
	editor      string
	manager     string
	docURL      string
	formsURL    string
}

func (f *taskFields) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "task title")
	cmd.Flags().StringVar(&f.client, "client", "", "client id")
	cmd.Flags().StringVar(&f.taskType, "type", "", "article|recommendation|cover_letter")
	cmd.Flags().StringVar(&f.language, "language", "", "RU|EN")
	cmd.Flags().StringVar(&f.description, "description", "", "task description")
	cmd.Flags().StringVar(&f.media, "media", "", "media id")
	cmd.Flags().StringVar(&f.author, "author", "", "author user id")
	cmd.Flags().StringVar(&f.editor, "editor", "", "editor user id")
	cmd.Flags().StringVar(&f.manager, "manager", "", "manager user id")
	cmd.Flags().StringVar(&f.docURL, "doc-url", "", "Google Doc URL")
	cmd.Flags().StringVar(&f.formsURL, "forms-url", "", "Google Forms URL")
}

func newTasksCreateCmd(e *env) *cobra.Command {
	var fields taskFields

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := task.CreateRequest{
				Title:          fields.title,
				ClientID:       fields.client,
				Type:           task.Type(fields.taskType),
				Language:       task.Language(fields.language),
				Description:    fields.description,
				MediaID:        fields.media,
				AuthorID:       fields.author,
				EditorID:       fields.editor,
				ManagerID:      fields.manager,
				GoogleDocURL:   fields.docURL,
				GoogleFormsURL: fields.formsURL,
			}
			if err := req.Validate(); err != nil {
				return err
			}

			a, err := e.load()
			if err != nil {
				return err
			}
			t, err := a.NewStore().Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s: %s\n", util.ShortID(t.ID), t.Title)
			return nil
		},
	}

	fields.register(cmd)
	return cmd
}

func newTasksUpdateCmd(e *env) *cobra.Command {
	var fields taskFields

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change task fields; only the flags given are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := fields.update(cmd)
			if req.Empty() {
				return errors.New("nothing to update: pass at least one field flag")
			}
			if err := req.Validate(); err != nil {
				return err
			}

			a, err := e.load()
			if err != nil {
				return err
			}
			s := a.NewStore()
			id, err := resolveID(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			t, err := s.UpdateTask(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s\n", util.ShortID(t.ID), t.Title)
			return nil
		},
	}

	fields.register(cmd)
	return cmd
}

// update builds a partial update from the flags that were set on cmd.
func (f *taskFields) update(cmd *cobra.Command) task.UpdateRequest {
	var req task.UpdateRequest
	changed := cmd.Flags().Changed
	str := func(flag, value string) *string {
		if !changed(flag) {
			return nil
		}
		return &value
	}

	req.Title = str("title", f.title)
	req.ClientID = str("client", f.client)
	req.Description = str("description", f.description)
	req.MediaID = str("media", f.media)
	req.AuthorID = str("author", f.author)
	req.EditorID = str("editor", f.editor)
	req.ManagerID = str("manager", f.manager)
	req.GoogleDocURL = str("doc-url", f.docURL)
	req.GoogleFormsURL = str("forms-url", f.formsURL)
	if changed("type") {
		t := task.Type(f.taskType)
		req.Type = &t
	}
	if changed("language") {
		l := task.Language(f.language)
		req.Language = &l
	}
	return req
}

func newTasksStatusCmd(e *env) *cobra.Command {
	var (
		comment string
		extra   task.StatusExtra
	)

	cmd := &cobra.Command{
		Use:   "status <id> <stage>",
		Short: "Move a task to another stage",
		Long: `Move a task to another pipeline stage. Moving backward, sideways or to
postponed requires --comment.

Stages: new, in_progress, editor_review, client_approval, client_approved,
sent_to_media, published, postponed`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := task.ParseStatus(args[1])
			if err != nil {
				return err
			}
			change := task.NewStatusChange(to, comment, extra)
			if err := change.Validate(); err != nil {
				return err
			}

			a, err := e.load()
			if err != nil {
				return err
			}
			s := a.NewStore()
			id, err := resolveID(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			current, err := s.Fetch(cmd.Context(), id)
			if err != nil {
				return err
			}

			t, err := s.ChangeStatus(cmd.Context(), id, change)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s from %s to %s\n",
				util.ShortID(t.ID), current.Status.Label(), t.Status.Label())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&comment, "comment", "m", "", "comment (required for backward or lateral moves)")
	flags.StringVar(&extra.PostponeReason, "postpone-reason", "", "why the task is postponed")
	flags.StringVar(&extra.PostponeResumeDate, "resume-date", "", "resume date (YYYY-MM-DD)")
	flags.StringVar(&extra.PublicationURL, "publication-url", "", "published article URL")
	flags.StringVar(&extra.PublicationDate, "publication-date", "", "publication date (YYYY-MM-DD)")
	flags.StringVar(&extra.ClientGratitude, "gratitude", "", "client feedback after publication")
	flags.StringVar(&extra.SentToWhom, "sent-to", "", "who the text was sent to")
	flags.StringVar(&extra.SentMethod, "sent-method", "", "how the text was sent")
	return cmd
}

type taskAction func(ctx context.Context, s *store.Store, id string) (task.Task, error)

func newTaskActionCmd(e *env, name, short string, action taskAction) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load()
			if err != nil {
				return err
			}
			s := a.NewStore()
			id, err := resolveID(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			t, err := action(cmd.Context(), s, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", util.ShortID(t.ID), t.Status.Label())
			return nil
		},
	}
}

func newTasksDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load()
			if err != nil {
				return err
			}
			s := a.NewStore()
			id, err := resolveID(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			if err := s.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", util.ShortID(id))
			return nil
		},
	}
}
