// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides the shared schema-unify-decode CUE parsing flow
// used by the config and modfile packages:
//
//  1. Compile the embedded schema
//  2. Compile the user's file and unify it with a schema definition
//  3. Validate and decode into a Go value
//
// JSON is valid CUE, so every entry point here accepts plain JSON files too.
package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// MaxFileSize caps the size of any parsed file (5MB). Declarative command
// files are small; anything near this limit is a mistake or an attack.
const MaxFileSize = 5 * 1024 * 1024

// Decoded pairs the decoded Go value with the unified CUE value, which
// callers can query for fields the Go struct does not model (e.g. union-typed
// fields that need kind inspection).
type Decoded[T any] struct {
	Value   *T
	Unified cue.Value
}

// DecodeFile compiles data against the schema definition at defPath (e.g.
// "#Module"), validates, and decodes into T. The filename is only used in
// error messages. When concrete is false, optional fields may stay unset.
func DecodeFile[T any](schema, data []byte, defPath, filename string, concrete bool) (*Decoded[T], error) {
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), MaxFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}

	def := schemaValue.LookupPath(cue.ParsePath(defPath))
	if def.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", defPath, def.Err())
	}

	unified := def.Unify(userValue)
	if err := unified.Validate(cue.Concrete(concrete)); err != nil {
		return nil, FormatError(err, filename)
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, filename)
	}

	return &Decoded[T]{Value: &out, Unified: unified}, nil
}

// DecodeFileToMap is DecodeFile's loosely-typed sibling for callers that feed
// the result into a layered configuration merge rather than a struct.
func DecodeFileToMap(schema, data []byte, defPath, filename string) (map[string]any, error) {
	res, err := DecodeFile[map[string]any](schema, data, defPath, filename, false)
	if err != nil {
		return nil, err
	}
	return *res.Value, nil
}
