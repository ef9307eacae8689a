package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/goliatone/go-profiles/pkg/activity"
)

// Task is a delayed HTTP call run by the scheduler. Either Timestamp (epoch
// ms) or Delay (ms) sets when it fires.
type Task struct {
	ID        string            `json:"id,omitempty"`
	Endpoint  string            `json:"endpoint"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	Body      any               `json:"body,omitempty"`
	Timestamp int64             `json:"timestamp,omitempty"`
	Delay     int64             `json:"delay,omitempty"`
}

// Validate checks the fields the scheduler requires.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Endpoint) == "" {
		return fmt.Errorf("%w: task property %q can not be empty", ErrInvalidArgument, "endpoint")
	}
	if strings.TrimSpace(t.Method) == "" {
		return fmt.Errorf("%w: task property %q can not be empty", ErrInvalidArgument, "method")
	}
	if t.Timestamp <= 0 && t.Delay <= 0 {
		return fmt.Errorf("%w: task needs a timestamp or a delay", ErrInvalidArgument)
	}
	return nil
}

// Tasks lists the scheduled tasks of the configured app.
func (c *Client) Tasks(ctx context.Context) ([]Task, error) {
	if c.cfg.SchedulerAPIHost == "" {
		return nil, ErrSchedulerDisabled
	}
	body, err := c.call(ctx, http.MethodGet, c.schedulerURL(""), nil)
	if err != nil {
		return nil, err
	}
	var tasks []Task
	if err := json.Unmarshal(body, &tasks); err != nil {
		return nil, errors.Wrap(err, "client: decode tasks")
	}
	return tasks, nil
}

// AddTask schedules task.
func (c *Client) AddTask(ctx context.Context, task Task) error {
	if c.cfg.SchedulerAPIHost == "" {
		return ErrSchedulerDisabled
	}
	if err := task.Validate(); err != nil {
		return err
	}
	if _, err := c.call(ctx, http.MethodPost, c.schedulerURL(""), task, http.StatusOK, http.StatusCreated); err != nil {
		return err
	}
	c.emit(ctx, activity.BuildTaskEvent(activity.VerbTaskAdded, c.eventInput(""), taskLabel(task)))
	return nil
}

// DeleteTask removes a scheduled task.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	if c.cfg.SchedulerAPIHost == "" {
		return ErrSchedulerDisabled
	}
	if strings.TrimSpace(taskID) == "" {
		return fmt.Errorf("%w: task id should be a non-empty string", ErrInvalidArgument)
	}
	if _, err := c.call(ctx, http.MethodDelete, c.schedulerURL(taskID), nil, http.StatusOK, http.StatusNoContent); err != nil {
		return err
	}
	c.emit(ctx, activity.BuildTaskEvent(activity.VerbTaskDeleted, c.eventInput(""), taskID))
	return nil
}

func taskLabel(task Task) string {
	if task.ID != "" {
		return task.ID
	}
	return task.Method + " " + task.Endpoint
}
