/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package batch_test

import (
	"errors"
	"fmt"
	"testing"

	"chainguard.dev/evalrunner/batch"
	"github.com/google/go-cmp/cmp"
)

type backendError struct {
	code, details string
}

func (e *backendError) Error() string   { return "backend failure " + e.code }
func (e *backendError) Code() string    { return e.code }
func (e *backendError) Details() string { return e.details }

type namedError struct{}

func (namedError) Error() string     { return "named" }
func (namedError) ErrorType() string { return "CustomType" }

func TestNewErrorInfo(t *testing.T) {
	t.Parallel()
	be := &backendError{code: "SANDBOX_TIMEOUT", details: "exceeded 3600s"}

	tests := []struct {
		name string
		err  error
		want *batch.ErrorInfo
	}{{
		name: "plain",
		err:  &sandboxError{msg: "exit 1"},
		want: &batch.ErrorInfo{
			ErrorType:    "sandboxError",
			ErrorMessage: "exit 1",
			Traceback:    []string{"exit 1"},
		},
	}, {
		name: "wrapped backend error",
		err:  fmt.Errorf("invoking agent: %w", be),
		want: &batch.ErrorInfo{
			ErrorType:           "wrapError",
			ErrorMessage:        "invoking agent: backend failure SANDBOX_TIMEOUT",
			Traceback:           []string{"invoking agent: backend failure SANDBOX_TIMEOUT", "backend failure SANDBOX_TIMEOUT"},
			BackendErrorCode:    "SANDBOX_TIMEOUT",
			BackendErrorDetails: "exceeded 3600s",
		},
	}, {
		name: "self-named",
		err:  namedError{},
		want: &batch.ErrorInfo{
			ErrorType:    "CustomType",
			ErrorMessage: "named",
			Traceback:    []string{"named"},
		},
	}, {
		name: "joined",
		err:  errors.Join(errors.New("a"), errors.New("b")),
		want: &batch.ErrorInfo{
			ErrorType:    "joinError",
			ErrorMessage: "a\nb",
			Traceback:    []string{"a\nb", "a", "b"},
		},
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, batch.NewErrorInfo(tt.err)); diff != "" {
				t.Errorf("NewErrorInfo() (-want +got):\n%s", diff)
			}
		})
	}
}
