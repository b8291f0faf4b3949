/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package results

import (
	"github.com/invopop/jsonschema"

	"chainguard.dev/evalrunner/agents/schema"
)

// SummarySchema describes the summary file format.
func SummarySchema() *jsonschema.Schema {
	s := schema.ReflectType[Summary]()
	s.Title = "Evaluation run summary"
	s.Description = "Outcome counts, error type distribution and per-instance results of one evaluation run."
	return s
}
