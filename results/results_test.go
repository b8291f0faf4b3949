/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package results_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chainguard.dev/evalrunner/agentclient"
	"chainguard.dev/evalrunner/batch"
	"chainguard.dev/evalrunner/results"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2026, time.January, 18, 14, 25, 1, 0, time.UTC)

func sampleResults() []results.Result {
	return []results.Result{{
		InstanceID: "astropy__astropy-12907",
		Status:     batch.StatusSuccess,
		Output:     &agentclient.Prediction{InstanceID: "astropy__astropy-12907", ModelPatch: "diff --git a/x b/x"},
		Attempts:   1,
	}, {
		InstanceID: "django__django-11099",
		Status:     batch.StatusError,
		Error:      &batch.ErrorInfo{ErrorType: "RemoteError", ErrorMessage: "remote agent returned 500", BackendErrorCode: "HTTP_500"},
		Attempts:   4,
	}, {
		InstanceID: "sympy__sympy-20590",
		Status:     batch.StatusError,
		Error:      &batch.ErrorInfo{ErrorType: batch.ErrorTypeNullResult, ErrorMessage: "invocation returned no result"},
		Attempts:   1,
	}, {
		InstanceID: "flask__flask-4045",
		Status:     batch.StatusError,
		Error:      &batch.ErrorInfo{ErrorType: "RemoteError", ErrorMessage: "remote agent returned 502"},
		Attempts:   4,
	}, {
		InstanceID: "requests__requests-2317",
		Status:     batch.StatusMissing,
	}}
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	rs := sampleResults()
	rs = append(rs, results.Result{InstanceID: "bare", Status: batch.StatusError})

	s := results.Summarize("run-1", ts, 7, rs)

	assert.Equal(t, "20260118_142501", s.Timestamp)
	assert.Equal(t, "summary_20260118_142501.json", s.FileName())
	assert.Equal(t, 7, s.TotalExamples)
	assert.Equal(t, 1, s.Successful)
	assert.Equal(t, 4, s.Failed)
	assert.Equal(t, 1, s.Missing)
	want := map[string]int{"RemoteError": 2, "NullResult": 1, "Unknown": 1}
	if diff := cmp.Diff(want, s.ErrorTypes); diff != "" {
		t.Errorf("ErrorTypes (-want +got):\n%s", diff)
	}
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()
	s := results.Summarize("run-1", ts, 0, nil)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"results":[]`)
	assert.Contains(t, string(data), `"error_types":{}`)
}

func TestWriter_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "predictions", "results")
	store := results.NewDirStore(dir)
	w := results.NewWriter(store, results.WithConcurrency(2))

	rs := sampleResults()
	require.NoError(t, w.WriteResults(ctx, rs))
	name, err := w.WriteSummary(ctx, results.Summarize("run-1", ts, len(rs), rs))
	require.NoError(t, err)
	assert.Equal(t, "summary_20260118_142501.json", name)

	raw, err := os.ReadFile(filepath.Join(dir, "django__django-11099.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n    \"instance_id\": \"django__django-11099\"", "four-space indentation")
	assert.Contains(t, string(raw), `"error_info"`)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, results.SchemaFile)
	assert.Contains(t, names, name)

	loaded, err := results.LoadResults(ctx, store)
	require.NoError(t, err)
	wantIDs := []string{
		"astropy__astropy-12907",
		"django__django-11099",
		"flask__flask-4045",
		"requests__requests-2317",
		"sympy__sympy-20590",
	}
	var gotIDs []string
	for _, r := range loaded {
		gotIDs = append(gotIDs, r.InstanceID)
	}
	if diff := cmp.Diff(wantIDs, gotIDs); diff != "" {
		t.Errorf("loaded IDs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(rs[1], loaded[1]); diff != "" {
		t.Errorf("loaded result (-want +got):\n%s", diff)
	}
}

func TestDirStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := results.NewDirStore(filepath.Join(t.TempDir(), "out"))

	names, err := store.List(ctx, "")
	require.NoError(t, err, "listing a directory that does not exist yet")
	assert.Empty(t, names)

	_, err = store.Get(ctx, "nope.json")
	assert.True(t, errors.Is(err, results.ErrNotFound), "got %v", err)

	require.NoError(t, store.Put(ctx, "a.json", []byte("1")))
	require.NoError(t, store.Put(ctx, "b.json", []byte("2")))
	require.NoError(t, store.Put(ctx, "a.json", []byte("3")))

	data, err := store.Get(ctx, "a.json")
	require.NoError(t, err)
	assert.Equal(t, "3", string(data))

	names, err = store.List(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.json"}, names)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files are left behind")
}

func TestLoadResults_Corrupt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := results.NewDirStore(t.TempDir())
	require.NoError(t, store.Put(ctx, "broken.json", []byte("{")))

	_, err := results.LoadResults(ctx, store)
	assert.ErrorContains(t, err, "decoding broken.json")
}

func TestSummarySchema(t *testing.T) {
	t.Parallel()
	s := results.SummarySchema()
	for _, field := range []string{"run_id", "timestamp", "total_examples", "successful", "failed", "error_types", "results"} {
		assert.Contains(t, s.Required, field)
	}
	assert.NotContains(t, s.Required, "missing")
}
