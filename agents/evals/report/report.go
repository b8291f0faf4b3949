/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"fmt"
	"strings"

	"chainguard.dev/evalrunner/results"
)

// Generator renders a run summary.
type Generator func(s results.Summary) string

// Generators maps the report formats accepted on the command line to
// their generators.
var Generators = map[string]Generator{
	"markdown": Markdown,
	"tree":     Simple,
	"errors":   ErrorTable,
}

// Markdown renders the counts of a run, its error type distribution and
// the per-instance tree.
func Markdown(s results.Summary) string {
	var b strings.Builder
	total := denominator(s)

	fmt.Fprintf(&b, "## Evaluation run %s (%s)\n\n", s.RunID, s.Timestamp)
	fmt.Fprintf(&b, "- Successful: %d/%d\n", s.Successful, total)
	fmt.Fprintf(&b, "- Failed: %d/%d\n", s.Failed, total)
	if s.Missing > 0 {
		fmt.Fprintf(&b, "- Missing: %d/%d\n", s.Missing, total)
	}

	if table := ErrorTable(s); table != "" {
		b.WriteString("\n### Error type distribution\n\n")
		b.WriteString(table)
	}

	if tree := Simple(s); tree != "" {
		b.WriteString("\n### Results\n\n```\n")
		b.WriteString(tree)
		if !strings.HasSuffix(tree, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n")
	}
	return b.String()
}

// denominator is the number of examples percentages are taken against.
func denominator(s results.Summary) int {
	if s.TotalExamples > 0 {
		return s.TotalExamples
	}
	return len(s.Results)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
