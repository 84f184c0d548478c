// Package graphql executes named GraphQL operations over HTTP and returns
// the response envelope unchanged.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"taskdeck/internal/logging"
)

const (
	// DefaultTimeout bounds a single operation.
	DefaultTimeout = 10 * time.Second

	// maxErrorBody caps how much of a failed response body is kept.
	maxErrorBody = 4 << 10
)

// ErrUnauthorized is returned for 401 and 403 responses.
var ErrUnauthorized = errors.New("unauthorized")

// Operation is a named GraphQL document.
type Operation struct {
	Name     string
	Document string
}

// Error is one entry of a GraphQL errors array.
type Error struct {
	Message   string        `json:"message"`
	Path      []interface{} `json:"path,omitempty"`
	ErrorType string        `json:"errorType,omitempty"`
}

// Result is the response envelope: data, errors, or both.
type Result struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []Error         `json:"errors,omitempty"`
}

// HasErrors reports a non-empty errors array.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Messages returns the error messages in order.
func (r *Result) Messages() []string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return msgs
}

// Decode unmarshals data into v. Null or absent data leaves v untouched.
func (r *Result) Decode(v interface{}) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// Executor runs GraphQL operations.
type Executor interface {
	Execute(ctx context.Context, op Operation, vars map[string]interface{}) (*Result, error)
}

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("graphql endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	Timeout time.Duration
	// BreakerFailures is the number of consecutive transport failures
	// that opens the circuit.
	BreakerFailures uint32
	BreakerCooldown time.Duration
	Log             logrus.FieldLogger
}

// Client posts operations to a single GraphQL endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker
	log      logrus.FieldLogger
}

// NewClient creates a client. httpClient carries authorization; a nil
// client uses http.DefaultClient.
func NewClient(endpoint string, httpClient *http.Client, opts Options) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 3
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 5 * time.Second
	}
	log := opts.Log
	if log == nil {
		log = logging.Logger
	}

	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "graphql",
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Client errors say nothing about endpoint health.
		IsSuccessful: func(err error) bool {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) {
				return httpErr.StatusCode < 500
			}
			return err == nil || errors.Is(err, ErrUnauthorized)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: circuit breaker %q changed from %s to %s", name, from, to)
		},
	})

	return &Client{
		endpoint: endpoint,
		http:     httpClient,
		timeout:  opts.Timeout,
		breaker:  breaker,
		log:      log,
	}
}

type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// Execute posts op with vars. Transport failures and non-2xx statuses are
// returned as errors; a GraphQL errors array is returned in the Result.
func (c *Client) Execute(ctx context.Context, op Operation, vars map[string]interface{}) (*Result, error) {
	body, err := json.Marshal(request{Query: op.Document, OperationName: op.Name, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", op.Name, err)
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, body)
	})
	c.log.WithFields(logrus.Fields{"operation": op.Name, "duration": time.Since(start)}).
		Debug("Event ID: GRAPHQL_EXECUTE, Description: operation completed")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Name, err)
	}
	return out.(*Result), nil
}

func (c *Client) post(ctx context.Context, body []byte) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, httpErr)
		}
		return nil, httpErr
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// wrapError shortens context errors to user-facing messages.
func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	return err
}
