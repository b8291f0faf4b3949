/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package swebench

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileSource reads examples from a local file. The format follows the
// extension: .json (array), .jsonl (one object per line), .yaml or .yml
// (list).
type FileSource string

// Load implements Source.
func (f FileSource) Load(context.Context) ([]Example, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	examples, err := Parse(filepath.Ext(string(f)), data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f, err)
	}
	return examples, nil
}

// Parse decodes examples in the format named by ext.
func Parse(ext string, data []byte) ([]Example, error) {
	var examples []Example
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &examples); err != nil {
			return nil, err
		}
	case ".jsonl":
		return parseJSONL(bytes.NewReader(data))
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &examples); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", ext)
	}
	return examples, nil
}

func parseJSONL(r io.Reader) ([]Example, error) {
	var examples []Example
	sc := bufio.NewScanner(r)
	// Problem statements and patches easily exceed the default token size.
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var ex Example
		if err := json.Unmarshal(text, &ex); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		examples = append(examples, ex)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return examples, nil
}

// Select picks the example with instanceID when it is set, otherwise the
// first length examples (all of them when length <= 0).
func Select(examples []Example, length int, instanceID string) ([]Example, error) {
	if instanceID != "" {
		for _, ex := range examples {
			if ex.InstanceID == instanceID {
				return []Example{ex}, nil
			}
		}
		return nil, fmt.Errorf("instance %q not found in dataset", instanceID)
	}
	if length <= 0 || length >= len(examples) {
		return examples, nil
	}
	return examples[:length], nil
}
