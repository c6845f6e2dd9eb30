// Package workflow is a client for the backend's workflow REST API:
// listing a goal's tasks, creating goals and advancing their phase.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"ocs/pkg/protocol"
)

// DefaultTimeout bounds one request when the caller's context has no
// deadline.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4096

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("workflow: %s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("workflow: %s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
}

// NotFound reports whether the backend answered 404.
func (e *StatusError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// Client talks to one backend. The zero value is not usable; use New.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.timeout = d }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New returns a client for the backend at baseURL (scheme://host[:port]).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// TasksURL returns the task list URL for goalID.
func (c *Client) TasksURL(goalID string) string {
	return c.baseURL + protocol.GoalsPath + "/" + url.PathEscape(goalID) + "/tasks"
}

// GoalTasks fetches the current task list for goalID.
func (c *Client) GoalTasks(ctx context.Context, goalID string) ([]protocol.Task, error) {
	if goalID == "" {
		return nil, fmt.Errorf("workflow: empty goal id")
	}
	var tasks []protocol.Task
	if err := c.do(ctx, http.MethodGet, c.TasksURL(goalID), nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []protocol.Task{}
	}
	return tasks, nil
}

// CreateGoal starts a new goal and returns its id.
func (c *Client) CreateGoal(ctx context.Context, req protocol.CreateGoalRequest) (protocol.CreateGoalResponse, error) {
	var resp protocol.CreateGoalResponse
	err := c.do(ctx, http.MethodPost, c.baseURL+protocol.GoalsPath, req, &resp)
	return resp, err
}

// AdvanceGoal asks the backend to move goalID to targetState.
func (c *Client) AdvanceGoal(ctx context.Context, goalID, targetState string) (protocol.AdvanceGoalResponse, error) {
	var resp protocol.AdvanceGoalResponse
	if goalID == "" {
		return resp, fmt.Errorf("workflow: empty goal id")
	}
	endpoint := c.baseURL + protocol.GoalsPath + "/" + url.PathEscape(goalID) + "/advance"
	err := c.do(ctx, http.MethodPost, endpoint, protocol.AdvanceGoalRequest{TargetState: targetState}, &resp)
	return resp, err
}

// do sends one JSON request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	if c.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("workflow: marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("workflow: creating request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("workflow: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("workflow request",
		"method", method, "url", endpoint, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("workflow: decoding %s response: %w", endpoint, err)
	}
	return nil
}
