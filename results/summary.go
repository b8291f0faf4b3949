/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package results

import (
	"time"

	"chainguard.dev/evalrunner/agentclient"
	"chainguard.dev/evalrunner/batch"
)

// TimestampLayout formats run timestamps, e.g. 20260118_142501.
const TimestampLayout = "20060102_150405"

// UnknownErrorType counts failures that carry no error details.
const UnknownErrorType = "Unknown"

// Result is the stored outcome of one SWE-bench example.
type Result = batch.Result[agentclient.Prediction]

// Summary aggregates the results of one run.
type Summary struct {
	RunID         string         `json:"run_id" jsonschema:"required"`
	Timestamp     string         `json:"timestamp" jsonschema:"required"`
	TotalExamples int            `json:"total_examples" jsonschema:"required"`
	Successful    int            `json:"successful" jsonschema:"required"`
	Failed        int            `json:"failed" jsonschema:"required"`
	Missing       int            `json:"missing"`
	ErrorTypes    map[string]int `json:"error_types" jsonschema:"required"`
	Results       []Result       `json:"results" jsonschema:"required"`
}

// Summarize counts results by status and failures by error type.
func Summarize(runID string, ts time.Time, total int, results []Result) Summary {
	s := Summary{
		RunID:         runID,
		Timestamp:     ts.Format(TimestampLayout),
		TotalExamples: total,
		ErrorTypes:    make(map[string]int),
		Results:       results,
	}
	for _, r := range results {
		switch r.Status {
		case batch.StatusSuccess:
			s.Successful++
		case batch.StatusError:
			s.Failed++
			et := UnknownErrorType
			if r.Error != nil && r.Error.ErrorType != "" {
				et = r.Error.ErrorType
			}
			s.ErrorTypes[et]++
		case batch.StatusMissing:
			s.Missing++
		}
	}
	if s.Results == nil {
		s.Results = []Result{}
	}
	return s
}

// FileName is the name the summary is stored under.
func (s Summary) FileName() string {
	return "summary_" + s.Timestamp + ".json"
}
