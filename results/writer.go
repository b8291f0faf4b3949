/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package results

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"
)

const (
	summaryPrefix = "summary_"

	// SchemaFile holds the JSON schema of the summary files.
	SchemaFile = "summary.schema.json"

	defaultConcurrency = 8
)

// Writer serializes results into a Store.
type Writer struct {
	store       Store
	concurrency int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithConcurrency bounds the number of files written in parallel.
func WithConcurrency(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// NewWriter returns a Writer for store.
func NewWriter(store Store, opts ...WriterOption) *Writer {
	w := &Writer{store: store, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteResults stores every result as {instance_id}.json.
func (w *Writer) WriteResults(ctx context.Context, results []Result) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.concurrency)
	for _, r := range results {
		if r.InstanceID == "" {
			continue
		}
		eg.Go(func() error {
			data, err := marshal(r)
			if err != nil {
				return fmt.Errorf("encoding %s: %w", r.InstanceID, err)
			}
			return w.store.Put(ctx, r.InstanceID+".json", data)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	clog.FromContext(ctx).With("count", len(results)).Info("Saved individual results")
	return nil
}

// WriteSummary stores s next to the schema describing it and returns the
// summary file name.
func (w *Writer) WriteSummary(ctx context.Context, s Summary) (string, error) {
	data, err := marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding summary: %w", err)
	}
	if err := w.store.Put(ctx, s.FileName(), data); err != nil {
		return "", err
	}
	schema, err := marshal(SummarySchema())
	if err != nil {
		return "", fmt.Errorf("encoding summary schema: %w", err)
	}
	if err := w.store.Put(ctx, SchemaFile, schema); err != nil {
		return "", err
	}
	return s.FileName(), nil
}

// LoadResults reads back every per-instance result in store, sorted by
// instance ID.
func LoadResults(ctx context.Context, store Store) ([]Result, error) {
	names, err := store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []Result
	for _, name := range names {
		if !isResultFile(name) {
			continue
		}
		data, err := store.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		var r Result
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		if r.InstanceID == "" {
			r.InstanceID = strings.TrimSuffix(name, ".json")
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstanceID < out[j].InstanceID })
	return out, nil
}

func isResultFile(name string) bool {
	return strings.HasSuffix(name, ".json") &&
		!strings.HasPrefix(name, summaryPrefix) &&
		name != SchemaFile
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
