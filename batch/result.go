/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package batch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Item is one unit of independent work.
type Item interface {
	// ID returns the identifier results are keyed by.
	ID() string
}

// InvokeFunc performs the remote unit of work for an item. Returning a nil
// payload with a nil error records a NullResult failure.
type InvokeFunc[I Item, P any] func(ctx context.Context, item I) (*P, error)

// Status is the outcome recorded for an item.
type Status string

const (
	// StatusSuccess indicates the invocation returned a payload.
	StatusSuccess Status = "success"

	// StatusError indicates a terminal failure.
	StatusError Status = "error"

	// StatusMissing marks an item that never received a result.
	StatusMissing Status = "missing"
)

// ErrorTypeNullResult is the error type recorded when an invocation
// returned no payload.
const ErrorTypeNullResult = "NullResult"

// Result is the outcome of one item.
type Result[P any] struct {
	InstanceID string     `json:"instance_id"`
	Status     Status     `json:"status"`
	Output     *P         `json:"output,omitempty"`
	Error      *ErrorInfo `json:"error_info,omitempty"`
	// Attempts is the retry count of the deciding attempt plus one.
	// Rate-limited requeues do not count.
	Attempts int `json:"attempts,omitempty"`
}

// ErrorInfo describes a failed item.
type ErrorInfo struct {
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
	// Traceback holds the messages of the wrapped error chain, outermost first.
	Traceback           []string `json:"traceback,omitempty"`
	BackendErrorCode    string   `json:"backend_error_code,omitempty"`
	BackendErrorDetails string   `json:"backend_error_details,omitempty"`
}

// BackendError is implemented by errors that carry a backend-specific code.
// Errors may also provide Details() string.
type BackendError interface {
	error
	Code() string
}

// PanicError reports a panic raised by an InvokeFunc. It is retried and
// recorded like any other invocation error.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("invocation panicked: %v", e.Value)
}

// ErrorType names the error in failure records.
func (e *PanicError) ErrorType() string {
	return "Panic"
}

// NewErrorInfo builds the failure record for err.
func NewErrorInfo(err error) *ErrorInfo {
	info := &ErrorInfo{
		ErrorType:    errorType(err),
		ErrorMessage: err.Error(),
		Traceback:    errorChain(err),
	}
	var pe *PanicError
	if errors.As(err, &pe) && pe.Stack != "" {
		info.Traceback = append(info.Traceback, strings.Split(strings.TrimSpace(pe.Stack), "\n")...)
	}
	var be BackendError
	if errors.As(err, &be) {
		info.BackendErrorCode = be.Code()
		if d, ok := be.(interface{ Details() string }); ok {
			info.BackendErrorDetails = d.Details()
		}
	}
	return info
}

// errorType returns the unqualified dynamic type name of err, unless the
// error names its own type.
func errorType(err error) string {
	var named interface{ ErrorType() string }
	if errors.As(err, &named) {
		return named.ErrorType()
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

func errorChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				chain = append(chain, errorChain(e)...)
			}
			return chain
		default:
			return chain
		}
	}
	return chain
}

func missing[P any](id string) Result[P] {
	return Result[P]{InstanceID: id, Status: StatusMissing}
}

// resultSet records at most one result per item ID.
type resultSet[P any] struct {
	mu      sync.Mutex
	results map[string]Result[P]
}

func newResultSet[P any]() *resultSet[P] {
	return &resultSet[P]{results: make(map[string]Result[P])}
}

func (s *resultSet[P]) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.results[id]
	return ok
}

// record stores r unless a result for the same ID exists and reports
// whether it was stored.
func (s *resultSet[P]) record(r Result[P]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[r.InstanceID]; ok {
		return false
	}
	s.results[r.InstanceID] = r
	return true
}

// ordered returns one result per item in input order.
func (s *resultSet[P]) ordered(items []string) []Result[P] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result[P], 0, len(items))
	for _, id := range items {
		if r, ok := s.results[id]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, missing[P](id))
	}
	return out
}
