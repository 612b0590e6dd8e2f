package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/pablasso/newsdesk/internal/task"
)

const tasksPath = "/api/tasks/"

// taskPath builds /api/tasks/{id}[/suffix], rejecting ids that are not UUIDs.
func taskPath(id, suffix string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	path := "/api/tasks/" + parsed.String()
	if suffix != "" {
		path += "/" + suffix
	}
	return path, nil
}

// ListTasks returns the tasks matching filters.
func (c *Client) ListTasks(ctx context.Context, filters task.Filters) ([]task.Task, error) {
	var tasks []task.Task
	if err := c.doJSON(ctx, http.MethodGet, tasksPath, filters.Values(), nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// GetTask returns a single task.
func (c *Client) GetTask(ctx context.Context, id string) (task.Task, error) {
	var t task.Task
	path, err := taskPath(id, "")
	if err != nil {
		return t, err
	}
	err = c.doJSON(ctx, http.MethodGet, path, nil, nil, &t)
	return t, err
}

// CreateTask creates a task and returns the stored version.
func (c *Client) CreateTask(ctx context.Context, req task.CreateRequest) (task.Task, error) {
	var t task.Task
	if err := req.Validate(); err != nil {
		return t, err
	}
	err := c.doJSON(ctx, http.MethodPost, tasksPath, nil, req, &t)
	return t, err
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, id string, req task.UpdateRequest) (task.Task, error) {
	var t task.Task
	if err := req.Validate(); err != nil {
		return t, err
	}
	path, err := taskPath(id, "")
	if err != nil {
		return t, err
	}
	err = c.doJSON(ctx, http.MethodPatch, path, nil, req, &t)
	return t, err
}

// ChangeStatus moves a task to another pipeline stage.
func (c *Client) ChangeStatus(ctx context.Context, id string, change task.StatusChange) (task.Task, error) {
	var t task.Task
	if err := change.Validate(); err != nil {
		return t, err
	}
	path, err := taskPath(id, "status")
	if err != nil {
		return t, err
	}
	err = c.doJSON(ctx, http.MethodPatch, path, nil, change, &t)
	return t, err
}

// TakeTask claims a new task for the current user.
func (c *Client) TakeTask(ctx context.Context, id string) (task.Task, error) {
	return c.postAction(ctx, id, "take")
}

// UndoTask reverts the most recent status change.
func (c *Client) UndoTask(ctx context.Context, id string) (task.Task, error) {
	return c.postAction(ctx, id, "undo")
}

func (c *Client) postAction(ctx context.Context, id, action string) (task.Task, error) {
	var t task.Task
	path, err := taskPath(id, action)
	if err != nil {
		return t, err
	}
	err = c.doJSON(ctx, http.MethodPost, path, nil, nil, &t)
	return t, err
}

// DeleteTask deletes a task. Any success body is ignored.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	path, err := taskPath(id, "")
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}
