/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package results persists the outcome of an evaluation run.

Each item gets its own `{instance_id}.json` file and every run adds a
`summary_{YYYYMMDD_HHMMSS}.json` with success and failure counts and the
distribution of error types. Files are written through a [Store], which is
either a local directory ([DirStore]) or a Cloud Storage prefix
([GCSStore]).

	store := results.NewDirStore(results.DefaultDir)
	w := results.NewWriter(store)
	if err := w.WriteResults(ctx, rs); err != nil {
		return err
	}
	name, err := w.WriteSummary(ctx, results.Summarize(runID, time.Now(), len(examples), rs))

Stored results can be loaded back with [LoadResults], which is how a run
that reuses existing predictions builds its report.
*/
package results
