/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"fmt"
	"sort"
	"strings"

	"chainguard.dev/evalrunner/batch"
	"chainguard.dev/evalrunner/results"
	"chainguard.dev/sdk/pathtree"
)

// maxMessage is the rune limit for error messages shown in the tree.
const maxMessage = 120

// Simple renders results as a tree grouped by status, then error type,
// then instance.
func Simple(s results.Summary) string {
	if len(s.Results) == 0 {
		return ""
	}
	tree := pathtree.New()
	tree.PrintOption = pathtree.KeyValueLabel
	total := denominator(s)

	byStatus := map[batch.Status][]results.Result{}
	for _, r := range s.Results {
		byStatus[r.Status] = append(byStatus[r.Status], r)
	}

	if rs := byStatus[batch.StatusSuccess]; len(rs) > 0 {
		addStatus(tree, batch.StatusSuccess, len(rs), total, "")
		for _, r := range rs {
			_ = tree.Add(path(batch.StatusSuccess, "", r.InstanceID), "ok", attempts(r))
		}
	}

	if rs := byStatus[batch.StatusError]; len(rs) > 0 {
		addStatus(tree, batch.StatusError, len(rs), total, "❌ ")

		byType := map[string][]results.Result{}
		for _, r := range rs {
			et := results.UnknownErrorType
			if r.Error != nil && r.Error.ErrorType != "" {
				et = r.Error.ErrorType
			}
			byType[et] = append(byType[et], r)
		}
		types := make([]string, 0, len(byType))
		for et := range byType {
			types = append(types, et)
		}
		sort.Strings(types)

		for _, et := range types {
			_ = tree.Add(path(batch.StatusError, et, ""), fmt.Sprint(len(byType[et])), "")
			for _, r := range byType[et] {
				_ = tree.Add(path(batch.StatusError, et, r.InstanceID), "FAIL", failure(r))
			}
		}
	}

	if rs := byStatus[batch.StatusMissing]; len(rs) > 0 {
		addStatus(tree, batch.StatusMissing, len(rs), total, "❌ ")
		for _, r := range rs {
			_ = tree.Add(path(batch.StatusMissing, "", r.InstanceID), "MISSING", "")
		}
	}

	return tree.String()
}

func addStatus(tree *pathtree.Tree, status batch.Status, n, total int, marker string) {
	value := fmt.Sprintf("%s%.1f%%", marker, percent(n, total))
	label := fmt.Sprintf("(%d/%d)", n, total)
	if err := tree.Add(string(status), value, label); err != nil {
		_ = tree.Update(string(status), value, label)
	}
}

// path joins tree segments. Slashes inside segments would add levels, so
// they are replaced.
func path(status batch.Status, errorType, instanceID string) string {
	parts := []string{string(status)}
	for _, p := range []string{errorType, instanceID} {
		if p != "" {
			parts = append(parts, strings.ReplaceAll(p, "/", "_"))
		}
	}
	return strings.Join(parts, "/")
}

func attempts(r results.Result) string {
	switch r.Attempts {
	case 0:
		return ""
	case 1:
		return "(1 attempt)"
	default:
		return fmt.Sprintf("(%d attempts)", r.Attempts)
	}
}

func failure(r results.Result) string {
	msg := ""
	if r.Error != nil {
		msg = r.Error.ErrorMessage
		if r.Error.BackendErrorCode != "" {
			msg = r.Error.BackendErrorCode + ": " + msg
		}
	}
	msg = strings.Join(strings.Fields(msg), " ")
	if r := []rune(msg); len(r) > maxMessage {
		msg = string(r[:maxMessage-3]) + "..."
	}
	if a := attempts(r); a != "" {
		if msg == "" {
			return a
		}
		return msg + " " + a
	}
	return msg
}
