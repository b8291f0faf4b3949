/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package results

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/chainguard-dev/clog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"chainguard.dev/evalrunner/agents/executor/retry"
)

// DefaultDir is where results are written when no other location is set.
const DefaultDir = "predictions/results"

// ErrNotFound is returned by Get when the named file does not exist.
var ErrNotFound = errors.New("result file not found")

// Store holds named result files.
type Store interface {
	// Put writes data under name, replacing any existing file.
	Put(ctx context.Context, name string, data []byte) error
	// Get reads the file stored under name.
	Get(ctx context.Context, name string) ([]byte, error)
	// List returns the sorted names that start with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// DirStore is a Store backed by a local directory.
type DirStore struct {
	dir string
}

var _ Store = (*DirStore)(nil)

// NewDirStore returns a store rooted at dir. The directory is created on
// the first write.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

// Dir returns the root directory.
func (s *DirStore) Dir() string { return s.dir }

func (s *DirStore) Put(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", s.dir, err)
	}
	// Write to a temporary file first so readers never see partial output.
	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("renaming %s: %w", name, err)
	}
	return nil
}

func (s *DirStore) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return data, err
}

func (s *DirStore) List(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// GCSStore is a Store backed by objects under a prefix in a Cloud Storage
// bucket. Transient errors are retried with exponential backoff.
type GCSStore struct {
	bucket *storage.BucketHandle
	prefix string
	retry  retry.Config
}

var _ Store = (*GCSStore)(nil)

// GCSOption configures a GCSStore.
type GCSOption func(*GCSStore)

// WithRetryConfig overrides the backoff used for transient errors.
func WithRetryConfig(cfg retry.Config) GCSOption {
	return func(s *GCSStore) { s.retry = cfg }
}

// NewGCSStore returns a store that keeps files under prefix in bucket.
func NewGCSStore(bucket *storage.BucketHandle, prefix string, opts ...GCSOption) *GCSStore {
	s := &GCSStore{
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		retry:  retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GCSStore) object(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *GCSStore) Put(ctx context.Context, name string, data []byte) error {
	_, err := retry.WithBackoff(ctx, s.retry, "gcs write "+name, isTransient, func() (struct{}, error) {
		w := s.bucket.Object(s.object(name)).NewWriter(ctx)
		w.ContentType = "application/json"
		if _, err := w.Write(data); err != nil {
			w.Close()
			return struct{}{}, err
		}
		return struct{}{}, w.Close()
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", s.object(name), err)
	}
	clog.FromContext(ctx).With("object", s.object(name)).Debug("Wrote result object")
	return nil
}

func (s *GCSStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := retry.WithBackoff(ctx, s.retry, "gcs read "+name, isTransient, func() ([]byte, error) {
		r, err := s.bucket.Object(s.object(name)).NewReader(ctx)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	})
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", s.object(name), ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.object(name), err)
	}
	return data, nil
}

func (s *GCSStore) List(ctx context.Context, prefix string) ([]string, error) {
	query := &storage.Query{Prefix: s.object(prefix)}
	if err := query.SetAttrSelection([]string{"Name"}); err != nil {
		return nil, err
	}
	names, err := retry.WithBackoff(ctx, s.retry, "gcs list "+query.Prefix, isTransient, func() ([]string, error) {
		var names []string
		it := s.bucket.Objects(ctx, query)
		for {
			attrs, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return names, nil
			} else if err != nil {
				return nil, err
			}
			name := strings.TrimPrefix(attrs.Name, s.object(""))
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			names = append(names, name)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", query.Prefix, err)
	}
	sort.Strings(names)
	return names, nil
}

// isTransient reports whether a Cloud Storage error is worth retrying:
// throttling, server errors and truncated responses.
func isTransient(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 429 || gerr.Code >= 500
	}
	return false
}
