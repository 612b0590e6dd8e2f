package testutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pablasso/newsdesk/internal/task"
)

// Default credentials accepted by the fake backend.
const (
	Username = "editor@example.com"
	Password = "secret"
	Token    = "test-token"
)

// Request is a request recorded by the fake backend.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// Backend is an in-memory stand-in for the CRM API, including the board
// WebSocket.
type Backend struct {
	Server *httptest.Server
	User   task.User

	mu       sync.Mutex
	tasks    []task.Task
	previous map[string]task.Task
	clients  []task.Client
	media    []task.Media
	requests []Request
	failures []failure
	conns    map[*websocket.Conn]*sync.Mutex
	received []map[string]any
	now      func() time.Time

	upgrader websocket.Upgrader
}

type failure struct {
	status int
	detail any
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		User: task.User{
			ID:        uuid.NewString(),
			Email:     Username,
			FirstName: "Irina",
			LastName:  "Volkova",
			Role:      "editor",
		},
		previous: make(map[string]task.Task),
		conns:    make(map[*websocket.Conn]*sync.Mutex),
		now:      func() time.Time { return time.Now().UTC() },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", b.handleLogin)
	mux.HandleFunc("GET /api/auth/me", b.authed(b.handleMe))
	mux.HandleFunc("GET /api/tasks/{$}", b.authed(b.handleList))
	mux.HandleFunc("POST /api/tasks/{$}", b.authed(b.handleCreate))
	mux.HandleFunc("GET /api/tasks/{id}", b.authed(b.handleGet))
	mux.HandleFunc("PATCH /api/tasks/{id}", b.authed(b.handleUpdate))
	mux.HandleFunc("DELETE /api/tasks/{id}", b.authed(b.handleDelete))
	mux.HandleFunc("PATCH /api/tasks/{id}/status", b.authed(b.handleStatus))
	mux.HandleFunc("POST /api/tasks/{id}/take", b.authed(b.handleTake))
	mux.HandleFunc("POST /api/tasks/{id}/undo", b.authed(b.handleUndo))
	mux.HandleFunc("GET /api/clients/{$}", b.authed(b.handleClients))
	mux.HandleFunc("GET /api/media/{$}", b.authed(b.handleMedia))
	mux.HandleFunc("GET /api/ws/board", b.authed(b.handleWS))

	b.Server = httptest.NewServer(b.record(mux))
	t.Cleanup(func() {
		b.CloseConnections()
		b.Server.Close()
	})
	return b
}

// URL returns the base URL of the fake backend.
func (b *Backend) URL() string {
	return b.Server.URL
}

// AddTask stores t, filling in an id and timestamps when missing.
func (b *Backend) AddTask(t task.Task) task.Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = task.StatusNew
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = b.now()
	}
	if t.StatusChangedAt.IsZero() {
		t.StatusChangedAt = t.CreatedAt
	}
	b.tasks = append(b.tasks, t)
	return t
}

// AddClient registers a client for the reference directory.
func (b *Backend) AddClient(c task.Client) task.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	b.clients = append(b.clients, c)
	return c
}

// AddMedia registers a media outlet for the reference directory.
func (b *Backend) AddMedia(m task.Media) task.Media {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	b.media = append(b.media, m)
	return m
}

// Task returns the backend's copy of a task.
func (b *Backend) Task(id string) (task.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(id); i >= 0 {
		return b.tasks[i], true
	}
	return task.Task{}, false
}

// Tasks returns a copy of every stored task.
func (b *Backend) Tasks() []task.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.tasks)
}

// Requests returns the recorded API requests, excluding the WebSocket handshake.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.requests)
}

// FailNext makes the next request fail with status and a FastAPI style detail
// (a string or a list of {loc, msg} objects).
func (b *Backend) FailNext(status int, detail any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, failure{status: status, detail: detail})
}

// Broadcast sends msg to every connected board socket.
func (b *Backend) Broadcast(msg any) {
	b.mu.Lock()
	conns := make(map[*websocket.Conn]*sync.Mutex, len(b.conns))
	for c, wmu := range b.conns {
		conns[c] = wmu
	}
	b.mu.Unlock()

	for c, wmu := range conns {
		wmu.Lock()
		c.WriteJSON(msg)
		wmu.Unlock()
	}
}

// Connections returns the number of open board sockets.
func (b *Backend) Connections() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

// WaitForConnections polls until n sockets are open or timeout passes.
func (b *Backend) WaitForConnections(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if b.Connections() >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// Received returns the messages clients sent over the board socket.
func (b *Backend) Received() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.received)
}

// CloseConnections drops every open board socket.
func (b *Backend) CloseConnections() {
	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.conns))
	for c := range b.conns {
		conns = append(conns, c)
	}
	b.conns = make(map[*websocket.Conn]*sync.Mutex)
	b.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ws/board" {
			var body []byte
			if r.Body != nil {
				body, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewReader(body))
			}
			b.mu.Lock()
			b.requests = append(b.requests, Request{
				Method: r.Method,
				Path:   r.URL.Path,
				Query:  r.URL.RawQuery,
				Body:   body,
			})
			var f *failure
			if len(b.failures) > 0 {
				f = &b.failures[0]
				b.failures = b.failures[1:]
			}
			b.mu.Unlock()

			if f != nil {
				writeJSON(w, f.status, map[string]any{"detail": f.detail})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token != Token {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r)
	}
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid form")
		return
	}
	if r.PostForm.Get("username") != Username || r.PostForm.Get("password") != Password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": Token,
		"token_type":   "bearer",
	})
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.User)
}

func (b *Backend) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if status := q.Get("status"); status != "" && !task.Status(status).Valid() {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{
				"loc": []string{"query", "status"},
				"msg": "Input should be one of the pipeline stages",
			}},
		})
		return
	}

	b.mu.Lock()
	out := make([]task.Task, 0, len(b.tasks))
	for _, t := range b.tasks {
		if matches(t, q.Get) {
			out = append(out, t)
		}
	}
	b.mu.Unlock()

	slices.SortStableFunc(out, func(x, y task.Task) int {
		return x.StatusChangedAt.Compare(y.StatusChangedAt)
	})
	writeJSON(w, http.StatusOK, out)
}

func matches(t task.Task, get func(string) string) bool {
	checks := []struct{ param, value string }{
		{"status", string(t.Status)},
		{"author_id", t.AuthorID},
		{"editor_id", t.EditorID},
		{"manager_id", t.ManagerID},
		{"client_id", t.ClientID},
		{"media_id", t.MediaID},
	}
	for _, c := range checks {
		if want := get(c.param); want != "" && want != c.value {
			return false
		}
	}
	if search := strings.ToLower(get("search")); search != "" {
		text := strings.ToLower(t.Title + " " + t.Description)
		if !strings.Contains(text, search) {
			return false
		}
	}
	return true
}

func (b *Backend) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req task.CreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" || req.ClientID == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body", "title"}, "msg": "Field required"}},
		})
		return
	}

	now := b.now()
	t := task.Task{
		ClientID:        req.ClientID,
		MediaID:         req.MediaID,
		AuthorID:        req.AuthorID,
		EditorID:        req.EditorID,
		ManagerID:       req.ManagerID,
		Title:           req.Title,
		Description:     req.Description,
		Type:            req.Type,
		Language:        req.Language,
		GoogleDocURL:    req.GoogleDocURL,
		GoogleFormsURL:  req.GoogleFormsURL,
		Status:          task.StatusNew,
		CreatedAt:       now,
		StatusChangedAt: now,
	}
	if t.Type == "" {
		t.Type = task.TypeArticle
	}
	if t.Language == "" {
		t.Language = task.LanguageRU
	}
	t = b.AddTask(t)

	b.Broadcast(map[string]any{"type": "task_created", "task_id": t.ID})
	writeJSON(w, http.StatusOK, t)
}

func (b *Backend) handleGet(w http.ResponseWriter, r *http.Request) {
	t, ok := b.Task(r.PathValue("id"))
	if !ok {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (b *Backend) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req task.UpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	t, ok := b.modify(r.PathValue("id"), func(t *task.Task) error {
		applyUpdate(t, req)
		return nil
	})
	if !ok {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	b.Broadcast(map[string]any{"type": "task_updated", "task_id": t.ID})
	writeJSON(w, http.StatusOK, t)
}

func applyUpdate(t *task.Task, req task.UpdateRequest) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&t.ClientID, req.ClientID)
	set(&t.MediaID, req.MediaID)
	set(&t.AuthorID, req.AuthorID)
	set(&t.EditorID, req.EditorID)
	set(&t.ManagerID, req.ManagerID)
	set(&t.Title, req.Title)
	set(&t.Description, req.Description)
	set(&t.GoogleDocURL, req.GoogleDocURL)
	set(&t.GoogleFormsURL, req.GoogleFormsURL)
	set(&t.PublicationURL, req.PublicationURL)
	set(&t.PublicationDate, req.PublicationDate)
	set(&t.ClientGratitude, req.ClientGratitude)
	set(&t.SentToWhom, req.SentToWhom)
	set(&t.SentMethod, req.SentMethod)
	if req.Type != nil {
		t.Type = *req.Type
	}
	if req.Language != nil {
		t.Language = *req.Language
	}
}

type statusError struct {
	status int
	detail string
}

func (e *statusError) Error() string { return e.detail }

func (b *Backend) handleStatus(w http.ResponseWriter, r *http.Request) {
	var change task.StatusChange
	if !decodeBody(w, r, &change) {
		return
	}

	var from task.Status
	t, ok, err := b.modifyErr(r.PathValue("id"), func(t *task.Task) error {
		forward := task.IsForwardMove(t.Status, change.Status)
		if !forward && (change.Comment == nil || *change.Comment == "") {
			return &statusError{http.StatusBadRequest, "Comment required for backward or lateral moves"}
		}
		b.previous[t.ID] = *t
		from = t.Status
		if !forward && t.Status != task.StatusPostponed {
			t.Iteration++
		}
		t.Status = change.Status
		t.StatusChangedAt = b.now()
		if change.Status == task.StatusPostponed {
			t.PostponeReason = change.PostponeReason
			t.PostponeResumeDate = change.PostponeResumeDate
		}
		extra := change.StatusExtra
		setIfPresent(&t.PublicationURL, extra.PublicationURL)
		setIfPresent(&t.PublicationDate, extra.PublicationDate)
		setIfPresent(&t.ClientGratitude, extra.ClientGratitude)
		setIfPresent(&t.SentToWhom, extra.SentToWhom)
		setIfPresent(&t.SentMethod, extra.SentMethod)
		return nil
	})
	if !b.writeModifyError(w, ok, err) {
		return
	}

	b.Broadcast(map[string]any{
		"type":        "task_status_changed",
		"task_id":     t.ID,
		"from_status": from,
		"to_status":   t.Status,
	})
	writeJSON(w, http.StatusOK, t)
}

func setIfPresent(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func (b *Backend) handleTake(w http.ResponseWriter, r *http.Request) {
	t, ok, err := b.modifyErr(r.PathValue("id"), func(t *task.Task) error {
		if t.Status != task.StatusNew {
			return &statusError{http.StatusBadRequest, "Can only take new tasks"}
		}
		author := b.User
		t.AuthorID = author.ID
		t.Author = &author
		t.Status = task.StatusInProgress
		t.StatusChangedAt = b.now()
		return nil
	})
	if !b.writeModifyError(w, ok, err) {
		return
	}

	b.Broadcast(map[string]any{"type": "task_taken", "task_id": t.ID, "user_id": b.User.ID})
	writeJSON(w, http.StatusOK, t)
}

func (b *Backend) handleUndo(w http.ResponseWriter, r *http.Request) {
	t, ok, err := b.modifyErr(r.PathValue("id"), func(t *task.Task) error {
		prev, found := b.previous[t.ID]
		if !found {
			return &statusError{http.StatusBadRequest, "No undo available (expired or already used)"}
		}
		delete(b.previous, t.ID)
		t.Status = prev.Status
		t.StatusChangedAt = prev.StatusChangedAt
		t.Iteration = prev.Iteration
		return nil
	})
	if !b.writeModifyError(w, ok, err) {
		return
	}

	b.Broadcast(map[string]any{"type": "task_undo", "task_id": t.ID})
	writeJSON(w, http.StatusOK, t)
}

func (b *Backend) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	b.mu.Lock()
	i := b.indexOf(id)
	if i >= 0 {
		b.tasks = slices.Delete(b.tasks, i, i+1)
	}
	b.mu.Unlock()

	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	b.Broadcast(map[string]any{"type": "task_deleted", "task_id": id})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (b *Backend) handleClients(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := slices.Clone(b.clients)
	b.mu.Unlock()
	if out == nil {
		out = []task.Client{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleMedia(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := slices.Clone(b.media)
	b.mu.Unlock()
	if out == nil {
		out = []task.Media{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	wmu := &sync.Mutex{}
	b.mu.Lock()
	b.conns[conn] = wmu
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.conns, conn)
		b.mu.Unlock()
		conn.Close()
	}()

	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		b.mu.Lock()
		b.received = append(b.received, msg)
		b.mu.Unlock()

		if msg["type"] == "ping" {
			wmu.Lock()
			conn.WriteJSON(map[string]string{"type": "pong"})
			wmu.Unlock()
		}
	}
}

func (b *Backend) modify(id string, fn func(*task.Task) error) (task.Task, bool) {
	t, ok, _ := b.modifyErr(id, fn)
	return t, ok
}

func (b *Backend) modifyErr(id string, fn func(*task.Task) error) (task.Task, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(id)
	if i < 0 {
		return task.Task{}, false, nil
	}
	t := b.tasks[i]
	if err := fn(&t); err != nil {
		return task.Task{}, true, err
	}
	b.tasks[i] = t
	return t, true, nil
}

func (b *Backend) writeModifyError(w http.ResponseWriter, found bool, err error) bool {
	if !found {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return false
	}
	if err != nil {
		status := http.StatusBadRequest
		var se *statusError
		if errors.As(err, &se) {
			status = se.status
		}
		writeDetail(w, status, err.Error())
		return false
	}
	return true
}

func (b *Backend) indexOf(id string) int {
	return slices.IndexFunc(b.tasks, func(t task.Task) bool { return t.ID == id })
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return false
	}
	return true
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
