// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// schemaValidator is the default MessageValidator/SpecValidator. It
// resolves each schema once and caches the result, the same
// once-per-type caching discipline the teacher SDK uses for
// reflection-generated tool schemas, applied here to a small fixed
// set of Jupyter message and REST-model schemas.
type schemaValidator struct {
	mu       sync.Mutex
	resolved map[*jsonschema.Schema]*jsonschema.Resolved
}

var _ MessageValidator = (*schemaValidator)(nil)
var _ SpecValidator = (*schemaValidator)(nil)

// NewSchemaValidator returns a MessageValidator and SpecValidator
// backed by github.com/google/jsonschema-go, validating against the
// schemas in this file.
func NewSchemaValidator() *schemaValidator {
	return &schemaValidator{resolved: make(map[*jsonschema.Schema]*jsonschema.Resolved)}
}

func (v *schemaValidator) resolve(schema *jsonschema.Schema) (*jsonschema.Resolved, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if r, ok := v.resolved[schema]; ok {
		return r, nil
	}
	r, err := schema.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
	if err != nil {
		return nil, err
	}
	v.resolved[schema] = r
	return r, nil
}

func (v *schemaValidator) validate(raw []byte, schema *jsonschema.Schema) error {
	resolved, err := v.resolve(schema)
	if err != nil {
		return fmt.Errorf("%w: resolve schema: %v", ErrInvalidResponse, err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := resolved.Validate(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func (v *schemaValidator) ValidateMessage(raw []byte) error {
	return v.validate(raw, messageSchema)
}

func (v *schemaValidator) ValidateKernelSpec(raw []byte) error {
	return v.validate(raw, kernelSpecSchema)
}

func (v *schemaValidator) ValidateKernelModel(raw []byte) error {
	return v.validate(raw, kernelModelSchema)
}

// messageSchema constrains the envelope shape of spec.md §3: a
// header with username/version/session/msg_id/msg_type, a channel in
// the four known values, and a content object. Content is
// intentionally permissive (kernel-message schema validation for
// individual msg_types is explicitly out of scope per spec.md §1).
var messageSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"header", "channel", "content"},
	Properties: map[string]*jsonschema.Schema{
		"header": {
			Type:     "object",
			Required: []string{"username", "version", "session", "msg_id", "msg_type"},
			Properties: map[string]*jsonschema.Schema{
				"username": {Type: "string"},
				"version":  {Type: "string"},
				"session":  {Type: "string"},
				"msg_id":   {Type: "string"},
				"msg_type": {Type: "string"},
			},
		},
		"parent_header": {Type: "object"},
		"channel":       {Enum: []any{"shell", "iopub", "stdin", "control"}},
		"content":       {Type: "object"},
		"metadata":      {Type: "object"},
	},
}

// kernelModelSchema constrains the {id, name} REST kernel model.
var kernelModelSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"id", "name"},
	Properties: map[string]*jsonschema.Schema{
		"id":   {Type: "string"},
		"name": {Type: "string"},
	},
}

// kernelSpecSchema constrains a single entry of the api/kernelspecs
// response: {name, spec: {display_name, language, argv, env?,
// resources?}}.
var kernelSpecSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"name", "spec"},
	Properties: map[string]*jsonschema.Schema{
		"name": {Type: "string"},
		"spec": {
			Type:     "object",
			Required: []string{"display_name", "language", "argv"},
			Properties: map[string]*jsonschema.Schema{
				"display_name": {Type: "string"},
				"language":     {Type: "string"},
				"argv":         {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
				"env":          {Type: "object"},
				"resources":    {Type: "object"},
			},
		},
	},
}
