package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	createTaskSchemaURL   = "taskboard://schemas/create-task.json"
	updateStatusSchemaURL = "taskboard://schemas/update-task-status.json"
)

const createTaskSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title"],
  "properties": {
    "title": {"type": "string", "pattern": "\\S"},
    "description": {"type": "string"},
    "deadline": {
      "anyOf": [
        {"const": ""},
        {"type": "string", "format": "date"}
      ]
    }
  }
}`

const updateStatusSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["completed"],
  "properties": {
    "completed": {"type": "boolean"}
  }
}`

var missingPropertyRe = regexp.MustCompile(`missing properties?: '([^']+)'`)

// InputError describes a request body rejected before it reached the store.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validator checks request bodies against the compiled JSON Schemas.
type Validator struct {
	createTask   *jsonschema.Schema
	updateStatus *jsonschema.Schema
}

// NewValidator compiles the request schemas.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	for url, src := range map[string]string{
		createTaskSchemaURL:   createTaskSchema,
		updateStatusSchemaURL: updateStatusSchema,
	} {
		if err := compiler.AddResource(url, strings.NewReader(src)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", url, err)
		}
	}

	create, err := compiler.Compile(createTaskSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile create schema: %w", err)
	}
	update, err := compiler.Compile(updateStatusSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile update schema: %w", err)
	}

	return &Validator{createTask: create, updateStatus: update}, nil
}

// MustNewValidator is NewValidator for the built-in schemas, which always compile.
func MustNewValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// DecodeCreateTask validates body and decodes it into a create request.
func (v *Validator) DecodeCreateTask(body []byte) (CreateTaskRequest, error) {
	var req CreateTaskRequest
	err := decodeValidated(v.createTask, body, &req)
	return req, err
}

// DecodeUpdateStatus validates body and decodes it into an update-status request.
func (v *Validator) DecodeUpdateStatus(body []byte) (UpdateTaskStatusRequest, error) {
	var req UpdateTaskStatusRequest
	err := decodeValidated(v.updateStatus, body, &req)
	return req, err
}

func decodeValidated(schema *jsonschema.Schema, body []byte, dst any) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return &InputError{Field: "body", Message: "malformed JSON"}
	}
	if err := schema.Validate(doc); err != nil {
		return toInputError(err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &InputError{Field: "body", Message: err.Error()}
	}
	return nil
}

// toInputError reduces a schema validation failure to its first leaf cause.
func toInputError(err error) *InputError {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &InputError{Field: "body", Message: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}

	field := strings.TrimPrefix(ve.InstanceLocation, "/")
	if field == "" {
		if m := missingPropertyRe.FindStringSubmatch(ve.Message); m != nil {
			return &InputError{Field: m[1], Message: "is required"}
		}
		field = "body"
	}
	return &InputError{Field: field, Message: ve.Message}
}
