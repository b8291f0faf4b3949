/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package swebench

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Example is one SWE-bench task instance.
type Example struct {
	InstanceID             string   `json:"instance_id" yaml:"instance_id"`
	Repo                   string   `json:"repo" yaml:"repo"`
	BaseCommit             string   `json:"base_commit" yaml:"base_commit"`
	Patch                  string   `json:"patch,omitempty" yaml:"patch,omitempty"`
	TestPatch              string   `json:"test_patch,omitempty" yaml:"test_patch,omitempty"`
	ProblemStatement       string   `json:"problem_statement" yaml:"problem_statement"`
	HintsText              string   `json:"hints_text,omitempty" yaml:"hints_text,omitempty"`
	CreatedAt              string   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Version                string   `json:"version,omitempty" yaml:"version,omitempty"`
	FailToPass             TestList `json:"FAIL_TO_PASS,omitempty" yaml:"FAIL_TO_PASS,omitempty"`
	PassToPass             TestList `json:"PASS_TO_PASS,omitempty" yaml:"PASS_TO_PASS,omitempty"`
	EnvironmentSetupCommit string   `json:"environment_setup_commit,omitempty" yaml:"environment_setup_commit,omitempty"`
}

// ID implements batch.Item.
func (e Example) ID() string {
	return e.InstanceID
}

// TestList names the tests of an example. Published dataset exports store
// it as a string holding a JSON array; a plain array is accepted too.
type TestList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *TestList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		return l.decodeString(encoded)
	}
	var tests []string
	if err := json.Unmarshal(data, &tests); err != nil {
		return err
	}
	*l = tests
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *TestList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag != "!!null" {
		return l.decodeString(node.Value)
	}
	var tests []string
	if err := node.Decode(&tests); err != nil {
		return err
	}
	*l = tests
	return nil
}

func (l *TestList) decodeString(encoded string) error {
	if len(bytes.TrimSpace([]byte(encoded))) == 0 {
		*l = nil
		return nil
	}
	var tests []string
	if err := json.Unmarshal([]byte(encoded), &tests); err != nil {
		return fmt.Errorf("decoding test list %q: %w", encoded, err)
	}
	*l = tests
	return nil
}
