/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package swebench describes SWE-bench examples and where to load them from.
//
// Datasets are looked up by name in a Registry. Registration is push-only:
// registering a name twice fails with ErrDuplicate instead of replacing
// the earlier source.
//
//	reg := swebench.DefaultRegistry("datasets")
//	src, err := reg.Lookup(swebench.Lite)
//	if err != nil {
//		return err
//	}
//	examples, err := src.Load(ctx)
//	if err != nil {
//		return err
//	}
//	examples, err = swebench.Select(examples, 10, "")
package swebench
