/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chainguard.dev/evalrunner/agentclient"
	"chainguard.dev/evalrunner/swebench"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const datasetJSONL = `{"instance_id": "astropy__astropy-12907", "repo": "astropy/astropy", "base_commit": "d16bfe05a744909de4b27f5875fe0d4ed41ce607", "problem_statement": "separability_matrix"}
{"instance_id": "django__django-11099", "repo": "django/django", "base_commit": "d26b2424437dabeeca94d7900b37d2df4410da0c", "problem_statement": "UsernameValidator"}
{"instance_id": "sympy__sympy-20590", "repo": "sympy/sympy", "base_commit": "cffd4e0f86fefd4802349a9f9b19ed70934ea354", "problem_statement": "Symbol __dict__"}
`

// fakeAgent answers with a prediction, except for sympy which gets null.
func fakeAgent(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ex swebench.Example
		if err := json.NewDecoder(r.Body).Decode(&ex); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if strings.HasPrefix(ex.InstanceID, "sympy") {
			_, _ = w.Write([]byte("null"))
			return
		}
		_ = json.NewEncoder(w).Encode(agentclient.Prediction{ModelPatch: "diff --git a/" + ex.Repo})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testSetup(t *testing.T) (config, options) {
	t.Helper()
	dir := t.TempDir()
	dataset := filepath.Join(dir, "dataset.jsonl")
	require.NoError(t, os.WriteFile(dataset, []byte(datasetJSONL), 0o600))

	cfg := config{
		AgentURL:        fakeAgent(t).URL,
		ResultsDir:      filepath.Join(dir, "results"),
		DatasetDir:      dir,
		ScalingCooldown: time.Millisecond,
	}
	opts := options{
		dataset:     swebench.Lite,
		datasetFile: dataset,
		length:      10,
		workers:     2,
		minWorkers:  1,
		maxRetries:  1,
		report:      "markdown",
	}
	return cfg, opts
}

func TestRunEval(t *testing.T) {
	cfg, opts := testSetup(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runEval(ctx, cfg, opts, &out))
	t.Logf("Report:\n%s", out.String())

	assert.Contains(t, out.String(), "- Successful: 2/3")
	assert.Contains(t, out.String(), "- Failed: 1/3")
	assert.Contains(t, out.String(), "NullResult")

	for _, name := range []string{"astropy__astropy-12907.json", "django__django-11099.json", "sympy__sympy-20590.json", "summary.schema.json"} {
		assert.FileExists(t, filepath.Join(cfg.ResultsDir, name))
	}
	summaries, err := filepath.Glob(filepath.Join(cfg.ResultsDir, "summary_*.json"))
	require.NoError(t, err)
	assert.Len(t, summaries, 1)

	// A second run reports on the stored predictions without calling the agent.
	cfg.AgentURL = ""
	opts.useExistingPreds = true
	opts.report = "errors"
	out.Reset()
	require.NoError(t, runEval(ctx, cfg, opts, &out))
	assert.Contains(t, out.String(), "NullResult")
	assert.Contains(t, out.String(), "100.0%")
}

func TestRunEval_InstanceID(t *testing.T) {
	cfg, opts := testSetup(t)
	opts.instanceID = "django__django-11099"
	opts.report = "tree"

	var out bytes.Buffer
	require.NoError(t, runEval(context.Background(), cfg, opts, &out))
	assert.Contains(t, out.String(), "django__django-11099 [ok]")
	assert.NotContains(t, out.String(), "astropy")
}

func TestRunEval_SetupErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config, *options)
		want   string
	}{{
		name:   "unknown report",
		mutate: func(_ *config, o *options) { o.report = "html" },
		want:   `unknown report format "html"`,
	}, {
		name:   "no agent",
		mutate: func(c *config, _ *options) { c.AgentURL = "" },
		want:   "AGENT_URL must be set",
	}, {
		name: "unknown dataset",
		mutate: func(_ *config, o *options) {
			o.datasetFile = ""
			o.dataset = "princeton-nlp/SWE-bench_Nope"
		},
		want: "unknown dataset",
	}, {
		name:   "unknown instance",
		mutate: func(_ *config, o *options) { o.instanceID = "nope" },
		want:   `instance "nope" not found`,
	}, {
		name:   "invalid pool",
		mutate: func(_ *config, o *options) { o.minWorkers = 5 },
		want:   "running batch",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, opts := testSetup(t)
			tt.mutate(&cfg, &opts)
			err := runEval(context.Background(), cfg, opts, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunEval_Cancelled(t *testing.T) {
	cfg, opts := testSetup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runEval(ctx, cfg, opts, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.FileExists(t, filepath.Join(cfg.ResultsDir, "summary.schema.json"), "partial results are still saved")
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand(config{})
	for flag, want := range map[string]string{
		"dataset":     swebench.Lite,
		"length":      "10",
		"workers":     "5",
		"min-workers": "1",
		"max-retries": "3",
		"report":      "markdown",
	} {
		f := cmd.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, want, f.DefValue, flag)
	}
}
