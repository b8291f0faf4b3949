/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package report renders the outcome of an evaluation run.

# Generators

All generators implement the Generator function type:

	type Generator func(s results.Summary) string

Available generators:

  - Simple: a tree of results grouped by status, then error type, then instance
  - ErrorTable: a markdown table of the error type distribution
  - Markdown: run counts followed by the two sections above

# Usage

	summary := results.Summarize(runID, time.Now(), len(examples), rs)
	fmt.Print(report.Markdown(summary))

Generators are pure functions of the summary and safe for concurrent use.
*/
package report
