/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package swebench

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Well-known dataset names.
const (
	Full     = "princeton-nlp/SWE-bench"
	Lite     = "princeton-nlp/SWE-bench_Lite"
	Verified = "princeton-nlp/SWE-bench_Verified"
)

// Sentinel errors returned by registry operations.
var (
	ErrDuplicate      = errors.New("dataset already registered")
	ErrUnknownDataset = errors.New("unknown dataset")
)

// Source loads the examples of a dataset.
type Source interface {
	Load(ctx context.Context) ([]Example, error)
}

// Registry maps dataset names to sources. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// DefaultRegistry registers the three SWE-bench datasets as JSONL files
// under dir, named after the last path element of the dataset
// (e.g. SWE-bench_Lite.jsonl).
func DefaultRegistry(dir string) *Registry {
	r := NewRegistry()
	for _, name := range []string{Full, Lite, Verified} {
		// The names are distinct constants, registration cannot fail.
		_ = r.Register(name, FileSource(filepath.Join(dir, fileName(name))))
	}
	return r
}

func fileName(dataset string) string {
	return dataset[strings.LastIndex(dataset, "/")+1:] + ".jsonl"
}

// Register adds a dataset. It fails with ErrDuplicate if name is taken.
func (r *Registry) Register(name string, src Source) error {
	if name == "" {
		return errors.New("dataset name must not be empty")
	}
	if src == nil {
		return fmt.Errorf("dataset %q: nil source", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.sources[name] = src
	return nil
}

// Lookup returns the source registered under name.
func (r *Registry) Lookup(name string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}
	return src, nil
}

// Names returns the registered dataset names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
