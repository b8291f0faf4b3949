/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package retry classifies backend failures and computes backoff delays.
//
// IsRateLimited is a keyword heuristic over the error text; the batch
// pool uses it to decide between retiring a worker and ordinary retry
// accounting. WithBackoff is a general exponential-backoff helper for
// transient errors of side operations such as result uploads.
package retry
