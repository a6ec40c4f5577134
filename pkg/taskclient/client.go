// Package taskclient is the HTTP client of the task store service.
package taskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/felixgeelhaar/taskboard/pkg/observability"
)

var (
	// ErrNotFound is matched by errors for tasks the store does not know.
	ErrNotFound = errors.New("task not found")
	// ErrInvalidInput is matched by errors for requests the store rejected.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("task store unavailable: circuit open")
)

// Task is a task as returned by the store.
type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
	Completed   bool   `json:"completed"`
}

// NewTask is the body of a create request.
type NewTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
}

// APIError is a non-2xx response from the store.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("task store: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("task store: %d %s", e.StatusCode, e.Message)
}

// Is lets callers test 404 and 400 responses against ErrNotFound and ErrInvalidInput.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrInvalidInput:
		return e.StatusCode == http.StatusBadRequest
	}
	return false
}

// BreakerSettings tunes the circuit breaker.
type BreakerSettings struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before probing again.
	Timeout time.Duration
}

// DefaultBreakerSettings returns the default breaker tuning.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{MaxFailures: 5, Timeout: 30 * time.Second}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBreakerSettings overrides the breaker tuning.
func WithBreakerSettings(s BreakerSettings) Option {
	return func(c *Client) { c.breakerSettings = s }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics records one counter per request.
func WithMetrics(m observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client calls the task store. All calls share one circuit breaker; only
// transport errors and 5xx responses count against it.
type Client struct {
	baseURL         *url.URL
	http            *http.Client
	breaker         *gobreaker.CircuitBreaker[any]
	breakerSettings BreakerSettings
	logger          *slog.Logger
	metrics         observability.Metrics
}

// New creates a client for the store at baseURL, e.g. http://localhost:3000.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse task store url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("task store url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL:         u,
		http:            &http.Client{Timeout: 10 * time.Second},
		breakerSettings: DefaultBreakerSettings(),
		logger:          slog.Default(),
		metrics:         observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "taskstore",
		MaxRequests: 1,
		Timeout:     c.breakerSettings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.breakerSettings.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return c, nil
}

// BreakerState reports the breaker state, e.g. "closed" or "open".
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// List fetches the whole collection in store order.
func (c *Client) List(ctx context.Context) ([]Task, error) {
	tasks := []Task{}
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks, http.StatusOK); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create submits a new task and returns it as stored.
func (c *Client) Create(ctx context.Context, in NewTask) (*Task, error) {
	var created Task
	if err := c.do(ctx, http.MethodPost, "/tasks", in, &created, http.StatusCreated); err != nil {
		return nil, err
	}
	return &created, nil
}

// SetCompleted sets the completion flag of task id.
func (c *Client) SetCompleted(ctx context.Context, id int64, completed bool) (*Task, error) {
	var updated Task
	body := map[string]bool{"completed": completed}
	if err := c.do(ctx, http.MethodPut, taskPath(id), body, &updated, http.StatusOK); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes task id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, http.StatusNoContent)
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, want int) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, in, out, want)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any, want int) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := observability.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(observability.HeaderCorrelationID, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.Counter(observability.MetricClientRequests, 1,
			observability.T("method", method),
			observability.T(observability.StatusKey, "transport_error"),
		)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.metrics.Counter(observability.MetricClientRequests, 1,
		observability.T("method", method),
		observability.T(observability.StatusKey, strconv.Itoa(resp.StatusCode)),
	)

	if resp.StatusCode != want {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Message = payload.Message
	}
	return apiErr
}
