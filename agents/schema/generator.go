/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package schema derives JSON schemas for the files evaluation runs write.
package schema

import "github.com/invopop/jsonschema"

// reflector inlines nested types so every schema is self-contained, and
// reads required fields from jsonschema tags rather than omitempty.
func reflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
	}
}

// Reflect returns the JSON schema for v.
func Reflect(v any) *jsonschema.Schema {
	return reflector().Reflect(v)
}

// ReflectType reflects the zero value of T.
func ReflectType[T any]() *jsonschema.Schema {
	var zero T
	return Reflect(&zero)
}
