/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package agentclient invokes the remote agent that produces a prediction
// for one SWE-bench example.
package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chainguard.dev/evalrunner/agents/metrics"
	"chainguard.dev/evalrunner/batch"
	"chainguard.dev/evalrunner/swebench"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
)

// maxErrorBody bounds how much of a failed response is kept in errors.
const maxErrorBody = 4096

// Prediction is the agent's output for one example.
type Prediction struct {
	InstanceID      string   `json:"instance_id"`
	ModelNameOrPath string   `json:"model_name_or_path,omitempty"`
	ModelPatch      string   `json:"model_patch"`
	EditedFiles     []string `json:"edited_files,omitempty"`
	DurationSeconds float64  `json:"duration_seconds,omitempty"`
	Status          string   `json:"status,omitempty"`
}

// RemoteError is returned for non-2xx responses from the agent backend.
type RemoteError struct {
	StatusCode int
	// ErrCode and ErrDetails come from the backend's JSON error body, if any.
	ErrCode    string
	ErrDetails string
	Message    string
}

var _ batch.BackendError = (*RemoteError)(nil)

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("remote agent returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Code implements batch.BackendError. It falls back to the HTTP status.
func (e *RemoteError) Code() string {
	if e.ErrCode != "" {
		return e.ErrCode
	}
	return fmt.Sprintf("HTTP_%d", e.StatusCode)
}

// Details returns the backend-provided error details.
func (e *RemoteError) Details() string {
	return e.ErrDetails
}

// ErrorType names the error in failure records.
func (e *RemoteError) ErrorType() string {
	return "RemoteError"
}

// Client calls the agent backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Invocations
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records every invocation on m.
func WithMetrics(m *metrics.Invocations) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a Client for the agent backend at baseURL. Invocations have
// no client-side timeout; they are bounded only by the caller's context.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("agent base URL must not be empty")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Invoke runs the agent on ex. A literal null response body yields a nil
// prediction and a nil error.
func (c *Client) Invoke(ctx context.Context, ex swebench.Example) (pred *Prediction, err error) {
	endpoint := c.baseURL + "/run"
	start := time.Now()
	outcome := "success"
	defer func() {
		if c.metrics == nil {
			return
		}
		c.metrics.Record(ctx, endpoint, outcome, time.Since(start), err != nil,
			attribute.String("repo", ex.Repo),
			attribute.Int("attempt", batch.AttemptFromContext(ctx)))
	}()

	body, err := json.Marshal(ex)
	if err != nil {
		outcome = "encode_error"
		return nil, fmt.Errorf("encoding example: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		outcome = "request_error"
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	clog.FromContext(ctx).With("instance_id", ex.InstanceID).Debugf("Invoking agent at %s", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "transport_error"
		return nil, fmt.Errorf("calling agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = fmt.Sprintf("%dxx", resp.StatusCode/100)
		return nil, newRemoteError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "read_error"
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		outcome = "null"
		return nil, nil
	}

	pred = &Prediction{}
	if err := json.Unmarshal(data, pred); err != nil {
		outcome = "decode_error"
		return nil, fmt.Errorf("decoding prediction: %w", err)
	}
	if pred.InstanceID == "" {
		pred.InstanceID = ex.InstanceID
	}
	return pred, nil
}

// errorBody is the JSON error shape the backend uses.
type errorBody struct {
	Code    string `json:"code"`
	Details string `json:"details"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newRemoteError(resp *http.Response) *RemoteError {
	re := &RemoteError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil {
		re.ErrCode = eb.Code
		re.ErrDetails = eb.Details
		re.Message = eb.Message
		if re.Message == "" {
			re.Message = eb.Error
		}
		return re
	}
	re.Message = strings.TrimSpace(string(data))
	return re
}
