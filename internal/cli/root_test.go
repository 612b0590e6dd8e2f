package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pablasso/newsdesk/internal/api"
	"github.com/pablasso/newsdesk/internal/app"
	"github.com/pablasso/newsdesk/internal/auth"
	"github.com/pablasso/newsdesk/internal/task"
	"github.com/pablasso/newsdesk/internal/testutil"
	"github.com/pablasso/newsdesk/internal/util"
)

// harness runs commands against a fake backend with isolated home and work dirs.
type harness struct {
	t       *testing.T
	backend *testutil.Backend
	home    string
	work    string
	stdin   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		t:       t,
		backend: testutil.NewBackend(t),
		home:    t.TempDir(),
		work:    t.TempDir(),
	}
}

func (h *harness) tokenPath() string {
	return filepath.Join(h.home, ".newsdesk", "token.json")
}

func (h *harness) login() {
	h.t.Helper()
	if err := auth.NewTokenStore(h.tokenPath()).Save(testutil.Token); err != nil {
		h.t.Fatalf("failed to save token: %v", err)
	}
}

func (h *harness) env() *env {
	e := &env{newApp: app.New}
	e.opts.HomeDir = h.home
	e.opts.WorkDir = h.work
	return e
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()

	cmd := newRootCmd(h.env())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(h.stdin))
	cmd.SetArgs(append([]string{"--api-url=" + h.backend.URL(), "--log-level=error"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) lastRequest() testutil.Request {
	h.t.Helper()
	reqs := h.backend.Requests()
	if len(reqs) == 0 {
		h.t.Fatal("no requests recorded")
	}
	return reqs[len(reqs)-1]
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	h.stdin = testutil.Password + "\n"

	out, err := h.run("login", "--username", testutil.Username, "--password-stdin")
	if err != nil {
		t.Fatalf("login failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Logged in as Irina Volkova <editor@example.com>") {
		t.Errorf("unexpected output: %q", out)
	}

	token, err := auth.NewTokenStore(h.tokenPath()).Token()
	if err != nil || token != testutil.Token {
		t.Errorf("token = %q, err = %v", token, err)
	}
	info, err := os.Stat(h.tokenPath())
	if err != nil {
		t.Fatalf("token file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestLogin_Rejected(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "--username", testutil.Username, "--password", "wrong")
	if !errors.Is(err, api.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, statErr := os.Stat(h.tokenPath()); !os.IsNotExist(statErr) {
		t.Error("token saved after failed login")
	}
}

func TestLogin_MissingInput(t *testing.T) {
	h := newHarness(t)

	if _, err := h.run("login", "--password", "x"); err == nil || !strings.Contains(err.Error(), "--username") {
		t.Errorf("expected username error, got %v", err)
	}
	if _, err := h.run("login", "--username", "a@b.c"); err == nil || !strings.Contains(err.Error(), "password") {
		t.Errorf("expected password error, got %v", err)
	}
	if len(h.backend.Requests()) != 0 {
		t.Error("no request should be sent for invalid input")
	}
}

func TestWhoamiAndLogout(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("whoami")
	if err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	if !strings.Contains(out, "editor@example.com") || !strings.Contains(out, "Role: editor") {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := h.run("logout"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	_, err = h.run("whoami")
	if !errors.Is(err, auth.ErrNoToken) {
		t.Errorf("expected ErrNoToken after logout, got %v", err)
	}
}

func TestTasksList(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.AddTask(task.Task{Title: "Fresh pitch", Status: task.StatusNew})
	h.backend.AddTask(task.Task{Title: "Draft on tariffs", Status: task.StatusInProgress})

	out, err := h.run("tasks", "list", "--status", "in_progress")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if req := h.lastRequest(); req.Query != "status=in_progress" {
		t.Errorf("query = %q", req.Query)
	}
	if !strings.Contains(out, "Draft on tariffs") || strings.Contains(out, "Fresh pitch") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.HasPrefix(out, "ID") {
		t.Errorf("expected table header, got:\n%s", out)
	}
}

func TestTasksList_JSONAndEmpty(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("tasks", "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if strings.TrimSpace(out) != "No tasks." {
		t.Errorf("unexpected output %q", out)
	}

	h.backend.AddTask(task.Task{Title: "Only one"})
	out, err = h.run("tasks", "list", "--json")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var tasks []task.Task
	if err := json.Unmarshal([]byte(out), &tasks); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if len(tasks) != 1 || tasks[0].Title != "Only one" {
		t.Errorf("unexpected tasks %+v", tasks)
	}
}

func TestTasksList_InvalidFilters(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, err := h.run("tasks", "list", "--status", "archived")
	var unknown *task.UnknownStatusError
	if !errors.As(err, &unknown) {
		t.Errorf("expected UnknownStatusError, got %v", err)
	}

	_, err = h.run("tasks", "list", "--author", "bob")
	if err == nil || !strings.Contains(err.Error(), "--author") {
		t.Errorf("expected author id error, got %v", err)
	}
	if len(h.backend.Requests()) != 0 {
		t.Error("invalid filters should not reach the backend")
	}
}

func TestTasksShow_ByPrefix(t *testing.T) {
	h := newHarness(t)
	h.login()
	tk := h.backend.AddTask(task.Task{Title: "Profile piece", Status: task.StatusEditorReview, Description: "Long read"})

	out, err := h.run("tasks", "show", util.ShortID(tk.ID))
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{tk.ID, "Profile piece", "Editor review (editor_review)", "Long read"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := h.run("tasks", "show", "zzzz"); err == nil || !strings.Contains(err.Error(), "no task matches") {
		t.Errorf("expected no match error, got %v", err)
	}
}

func TestTasksCreateAndUpdate(t *testing.T) {
	h := newHarness(t)
	h.login()
	client := h.backend.AddClient(task.Client{FirstName: "Oleg", LastName: "Smirnov"})

	if _, err := h.run("tasks", "create", "--title", "No client"); err == nil {
		t.Error("expected validation error without --client")
	}
	if len(h.backend.Requests()) != 0 {
		t.Fatal("invalid create reached the backend")
	}

	out, err := h.run("tasks", "create", "--title", "Interview", "--client", client.ID, "--language", "EN")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.HasPrefix(out, "Created ") {
		t.Errorf("unexpected output %q", out)
	}

	var body map[string]any
	json.Unmarshal(h.lastRequest().Body, &body)
	if body["title"] != "Interview" || body["language"] != "EN" || body["client_id"] != client.ID {
		t.Errorf("unexpected create body %v", body)
	}

	created := findByTitle(t, h.backend, "Interview")

	if _, err := h.run("tasks", "update", created.ID); err == nil || !strings.Contains(err.Error(), "nothing to update") {
		t.Errorf("expected nothing-to-update error, got %v", err)
	}

	if _, err := h.run("tasks", "update", created.ID, "--title", "Interview, v2"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	json.Unmarshal(h.lastRequest().Body, &body)
	if len(body) != 1 || body["title"] != "Interview, v2" {
		t.Errorf("update should send only changed fields, got %v", body)
	}
}

func findByTitle(t *testing.T, b *testutil.Backend, title string) task.Task {
	t.Helper()
	for _, tk := range b.Tasks() {
		if tk.Title == title {
			return tk
		}
	}
	t.Fatalf("task %q not found", title)
	return task.Task{}
}

func TestTasksStatus(t *testing.T) {
	h := newHarness(t)
	h.login()
	tk := h.backend.AddTask(task.Task{Title: "Op-ed", Status: task.StatusSentToMedia})

	out, err := h.run("tasks", "status", tk.ID, "published", "--publication-url", "https://example.com/op-ed")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "from Sent to media to Published") {
		t.Errorf("unexpected output %q", out)
	}
	stored, _ := h.backend.Task(tk.ID)
	if stored.Status != task.StatusPublished || stored.PublicationURL != "https://example.com/op-ed" {
		t.Errorf("backend task not updated: %+v", stored)
	}
}

func TestTasksStatus_BackwardNeedsComment(t *testing.T) {
	h := newHarness(t)
	h.login()
	tk := h.backend.AddTask(task.Task{Title: "Review", Status: task.StatusEditorReview})

	_, err := h.run("tasks", "status", tk.ID, "in_progress")
	if err == nil || !strings.Contains(err.Error(), "comment") {
		t.Fatalf("expected comment error, got %v", err)
	}
	if req := h.lastRequest(); req.Method == "PATCH" {
		t.Error("status change sent without a comment")
	}

	if _, err := h.run("tasks", "status", tk.ID, "in_progress", "-m", "add sources"); err != nil {
		t.Fatalf("status with comment failed: %v", err)
	}
	var body map[string]any
	json.Unmarshal(h.lastRequest().Body, &body)
	if body["comment"] != "add sources" {
		t.Errorf("comment not sent: %v", body)
	}
}

func TestTasksStatus_UnknownStage(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, err := h.run("tasks", "status", "9b2f6c1e-3d4a-4e8b-a1c2-5f6e7d8c9b0a", "archived")
	var unknown *task.UnknownStatusError
	if !errors.As(err, &unknown) {
		t.Errorf("expected UnknownStatusError, got %v", err)
	}
}

func TestTasksTakeUndoDelete(t *testing.T) {
	h := newHarness(t)
	h.login()
	tk := h.backend.AddTask(task.Task{Title: "Pitch", Status: task.StatusNew})

	out, err := h.run("tasks", "take", tk.ID)
	if err != nil {
		t.Fatalf("take failed: %v", err)
	}
	if !strings.Contains(out, "is now In progress") {
		t.Errorf("unexpected output %q", out)
	}

	_, err = h.run("tasks", "take", tk.ID)
	if err == nil || err.Error() != "Can only take new tasks" {
		t.Errorf("expected backend detail, got %v", err)
	}

	if _, err := h.run("tasks", "status", tk.ID, "editor_review"); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	out, err = h.run("tasks", "undo", tk.ID)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if !strings.Contains(out, "is now In progress") {
		t.Errorf("unexpected undo output %q", out)
	}

	if _, err := h.run("tasks", "delete", tk.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := h.backend.Task(tk.ID); ok {
		t.Error("task still on backend")
	}
	_, err = h.run("tasks", "delete", tk.ID)
	if !api.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestBoardCommand(t *testing.T) {
	h := newHarness(t)
	h.login()
	now := time.Now().UTC()
	h.backend.AddTask(task.Task{Title: "Recent pitch", Status: task.StatusNew, StatusChangedAt: now.Add(-24 * time.Hour)})
	h.backend.AddTask(task.Task{Title: "Stale pitch", Status: task.StatusNew, StatusChangedAt: now.Add(-5 * 24 * time.Hour)})
	h.backend.AddTask(task.Task{Title: "Lost task", Status: "archived", StatusChangedAt: now})

	out, err := h.run("board")
	if err != nil {
		t.Fatalf("board failed: %v", err)
	}

	if !strings.Contains(out, "== New (2) ==") || !strings.Contains(out, "== Postponed (0) ==") {
		t.Errorf("missing column headers:\n%s", out)
	}
	stale := strings.Index(out, "Stale pitch")
	recent := strings.Index(out, "Recent pitch")
	if stale < 0 || recent < 0 || stale > recent {
		t.Errorf("overdue task should come first:\n%s", out)
	}
	if !strings.Contains(out, "== Unrecognized status (1) ==") || !strings.Contains(out, "[archived]") {
		t.Errorf("unknown status not reported:\n%s", out)
	}

	lines := strings.Split(out, "\n")
	for _, line := range lines {
		if strings.Contains(line, "Stale pitch") && !strings.HasPrefix(line, "!") {
			t.Errorf("overdue marker missing: %q", line)
		}
	}
}

func TestStatsCommand(t *testing.T) {
	h := newHarness(t)
	h.login()
	now := time.Now().UTC()
	h.backend.AddTask(task.Task{Title: "a", Status: task.StatusNew, StatusChangedAt: now.Add(-5 * 24 * time.Hour)})
	h.backend.AddTask(task.Task{Title: "b", Status: task.StatusEditorReview, StatusChangedAt: now})
	h.backend.AddTask(task.Task{Title: "c", Status: task.StatusPublished, StatusChangedAt: now})

	out, err := h.run("stats")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	for _, want := range []string{"In progress: 2 (1 overdue)", "Total: 3", "STAGE"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDirectoryCommands(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("clients")
	if err != nil || strings.TrimSpace(out) != "No clients." {
		t.Errorf("clients: %q, %v", out, err)
	}

	h.backend.AddClient(task.Client{FirstName: "Anna", LastName: "Petrova", Company: "Petrova Consulting"})
	h.backend.AddMedia(task.Media{Name: "Vedomosti", Language: task.LanguageRU})

	out, err = h.run("clients")
	if err != nil || !strings.Contains(out, "Anna Petrova") || !strings.Contains(out, "Petrova Consulting") {
		t.Errorf("clients: %q, %v", out, err)
	}
	out, err = h.run("media")
	if err != nil || !strings.Contains(out, "Vedomosti") || !strings.Contains(out, "RU") {
		t.Errorf("media: %q, %v", out, err)
	}
}

func TestInitCommand(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("init")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	path := filepath.Join(h.work, ".newsdesk", "config.yaml")
	if !strings.Contains(out, path) {
		t.Errorf("output should name %s: %q", path, out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	if _, err := h.run("init"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected already-exists error, got %v", err)
	}

	if _, err := h.run("init", "--global"); err != nil {
		t.Fatalf("init --global failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.home, ".newsdesk", "config.yaml")); err != nil {
		t.Errorf("global config not written: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "newsdesk dev") {
		t.Errorf("unexpected output %q", out)
	}
}

// syncBuffer is a bytes.Buffer safe for one writer and one polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch_ReprintsOnRealtimeChange(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.AddTask(task.Task{Title: "first", Status: task.StatusNew})

	a, err := app.New(app.Options{HomeDir: h.home, WorkDir: h.work, APIURL: h.backend.URL(), Silent: true})
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- watch(ctx, a, task.Filters{}, out) }()

	if !h.backend.WaitForConnections(1, 3*time.Second) {
		t.Fatal("watch never connected")
	}
	created := h.backend.AddTask(task.Task{Title: "second", Status: task.StatusNew})
	h.backend.Broadcast(map[string]any{"type": "task_created", "task_id": created.ID})

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && !strings.Contains(out.String(), "Total: 2") {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch returned %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "Total: 1") || !strings.Contains(text, "Total: 2") {
		t.Errorf("expected summaries before and after the change:\n%s", text)
	}
	if !strings.Contains(text, "realtime connected") {
		t.Errorf("connection state not reported:\n%s", text)
	}
}
