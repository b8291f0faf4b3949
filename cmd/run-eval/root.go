/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"chainguard.dev/evalrunner/agentclient"
	"chainguard.dev/evalrunner/agents/evals/report"
	"chainguard.dev/evalrunner/agents/metrics"
	"chainguard.dev/evalrunner/batch"
	"chainguard.dev/evalrunner/results"
	"chainguard.dev/evalrunner/swebench"
)

const meterName = "chainguard.dev/evalrunner"

type options struct {
	useExistingPreds bool
	dataset          string
	length           int
	instanceID       string
	datasetFile      string
	workers          int
	minWorkers       int
	maxRetries       int
	report           string
}

func newRootCommand(cfg config) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "run-eval",
		Short:        "Run an agent over SWE-bench examples with an adaptive worker pool",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEval(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.useExistingPreds, "use-existing-preds", false, "Use existing predictions instead of generating new ones.")
	f.StringVar(&opts.dataset, "dataset", swebench.Lite, "The dataset to use.")
	f.IntVar(&opts.length, "length", 10, "The number of examples to process.")
	f.StringVar(&opts.instanceID, "instance-id", "", "The instance ID of the example to process.")
	f.StringVar(&opts.datasetFile, "dataset-file", "", "Read examples from this .json, .jsonl or .yaml file instead of the dataset registry.")
	f.IntVar(&opts.workers, "workers", 5, "Initial and maximum number of concurrent workers.")
	f.IntVar(&opts.minWorkers, "min-workers", 1, "Fewest workers rate limiting may scale down to.")
	f.IntVar(&opts.maxRetries, "max-retries", 3, "Retries per example after a failed attempt.")
	f.StringVar(&opts.report, "report", "markdown", "Report format: "+strings.Join(reportFormats(), ", ")+".")
	return cmd
}

func reportFormats() []string {
	names := make([]string, 0, len(report.Generators))
	for name := range report.Generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runEval(ctx context.Context, cfg config, opts options, out io.Writer) error {
	gen, ok := report.Generators[opts.report]
	if !ok {
		return fmt.Errorf("unknown report format %q (want one of %s)", opts.report, strings.Join(reportFormats(), ", "))
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var summary results.Summary
	if opts.useExistingPreds {
		rs, err := results.LoadResults(ctx, store)
		if err != nil {
			return fmt.Errorf("loading existing predictions: %w", err)
		}
		clog.FromContext(ctx).With("count", len(rs)).Info("Using existing predictions")
		summary = results.Summarize(uuid.NewString(), time.Now(), len(rs), rs)
	} else {
		summary, err = generate(ctx, cfg, opts, store)
		if err != nil {
			return err
		}
	}

	fmt.Fprint(out, gen(summary))
	return nil
}

// generate runs the agent over the selected examples and persists the
// results and the run summary.
func generate(ctx context.Context, cfg config, opts options, store results.Store) (results.Summary, error) {
	if cfg.AgentURL == "" {
		return results.Summary{}, errors.New("AGENT_URL must be set unless --use-existing-preds is given")
	}
	examples, err := loadExamples(ctx, cfg, opts)
	if err != nil {
		return results.Summary{}, err
	}

	runID := uuid.NewString()
	invocations := metrics.NewInvocations(meterName)
	invocations.SetAttributeEnricher(func(_ context.Context, attrs []attribute.KeyValue) []attribute.KeyValue {
		return append(attrs,
			attribute.String("dataset", opts.dataset),
			attribute.String("run_id", runID))
	})
	client, err := agentclient.New(cfg.AgentURL, agentclient.WithMetrics(invocations))
	if err != nil {
		return results.Summary{}, err
	}

	log := clog.FromContext(ctx).With("run_id", runID)
	ctx = clog.WithLogger(ctx, log)
	log.Infof("Processing %d examples...", len(examples))

	rs, runErr := batch.Run(ctx, examples, client.Invoke,
		batch.WithName(opts.dataset),
		batch.WithWorkers(opts.workers),
		batch.WithMinWorkers(opts.minWorkers),
		batch.WithMaxRetries(opts.maxRetries),
		batch.WithScalingCooldown(cfg.ScalingCooldown),
	)
	if rs == nil && runErr != nil {
		return results.Summary{}, fmt.Errorf("running batch: %w", runErr)
	}

	// Partial results of an interrupted run are still saved.
	persistCtx := context.WithoutCancel(ctx)
	w := results.NewWriter(store)
	if err := w.WriteResults(persistCtx, rs); err != nil {
		return results.Summary{}, fmt.Errorf("saving results: %w", err)
	}
	summary := results.Summarize(runID, time.Now(), len(examples), rs)
	name, err := w.WriteSummary(persistCtx, summary)
	if err != nil {
		return results.Summary{}, fmt.Errorf("saving summary: %w", err)
	}

	log.With("summary", name).
		With("successful", summary.Successful).
		With("failed", summary.Failed).
		With("missing", summary.Missing).
		Infof("Processing complete: %d/%d successful", summary.Successful, summary.TotalExamples)

	if runErr != nil {
		return summary, fmt.Errorf("batch interrupted: %w", runErr)
	}
	return summary, nil
}

func loadExamples(ctx context.Context, cfg config, opts options) ([]swebench.Example, error) {
	var src swebench.Source
	if opts.datasetFile != "" {
		src = swebench.FileSource(opts.datasetFile)
	} else {
		reg := swebench.DefaultRegistry(cfg.DatasetDir)
		s, err := reg.Lookup(opts.dataset)
		if err != nil {
			return nil, fmt.Errorf("%w (known: %s)", err, strings.Join(reg.Names(), ", "))
		}
		src = s
	}

	all, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	return swebench.Select(all, opts.length, opts.instanceID)
}

// openStore returns the GCS store when a bucket is configured and the
// local directory store otherwise.
func openStore(ctx context.Context, cfg config) (results.Store, func(), error) {
	if cfg.ResultsBucket == "" {
		return results.NewDirStore(cfg.ResultsDir), func() {}, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("creating storage client: %w", err)
	}
	store := results.NewGCSStore(client.Bucket(cfg.ResultsBucket), cfg.ResultsPrefix)
	return store, func() { _ = client.Close() }, nil
}
