// Package contentsapi checks that payloads returned by a contents server
// have the shape the SDK promises to its callers. Validation is a pure
// pass/fail oracle over raw JSON bodies; it never repairs or coerces a
// payload.
package contentsapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Shape identifies the record type a payload is validated against.
type Shape string

const (
	ShapeContent    Shape = "content"
	ShapeCheckpoint Shape = "checkpoint"
)

// contentFields are the keys every content model must carry. "writable" is
// optional: servers that omit it mean "unknown, assume read-only".
var contentFields = []string{
	"name", "path", "type", "created", "last_modified", "mimetype", "content", "format",
}

var checkpointFields = []string{"id", "last_modified"}

// ValidationError reports why a payload failed its shape check.
type ValidationError struct {
	Shape   Shape
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing fields %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("invalid fields %s", strings.Join(e.Invalid, ", ")))
	}
	if len(parts) == 0 {
		parts = append(parts, "malformed payload")
	}
	return fmt.Sprintf("contentsapi: invalid %s model: %s", e.Shape, strings.Join(parts, "; "))
}

// ValidateContent checks that raw is a JSON object carrying all required
// content-model fields with sane types.
func ValidateContent(raw []byte) error {
	obj, err := decodeObject(raw, ShapeContent)
	if err != nil {
		return err
	}

	verr := &ValidationError{Shape: ShapeContent}
	for _, field := range contentFields {
		if _, ok := obj[field]; !ok {
			verr.Missing = append(verr.Missing, field)
		}
	}
	for _, field := range []string{"name", "path", "type"} {
		if v, ok := obj[field]; ok {
			if _, isString := v.(string); !isString {
				verr.Invalid = append(verr.Invalid, field)
			}
		}
	}
	if v, ok := obj["writable"]; ok && v != nil {
		if _, isBool := v.(bool); !isBool {
			verr.Invalid = append(verr.Invalid, "writable")
		}
	}
	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return verr
	}
	return nil
}

// ValidateCheckpoint checks that raw is a JSON object carrying a checkpoint
// id and timestamp.
func ValidateCheckpoint(raw []byte) error {
	obj, err := decodeObject(raw, ShapeCheckpoint)
	if err != nil {
		return err
	}

	verr := &ValidationError{Shape: ShapeCheckpoint}
	for _, field := range checkpointFields {
		if _, ok := obj[field]; !ok {
			verr.Missing = append(verr.Missing, field)
		}
	}
	if v, ok := obj["id"]; ok {
		if _, isString := v.(string); !isString {
			verr.Invalid = append(verr.Invalid, "id")
		}
	}
	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return verr
	}
	return nil
}

// ValidateCheckpointList asserts raw is a JSON sequence and validates every
// element as a checkpoint. A single object is a failure even when the object
// itself would validate.
func ValidateCheckpointList(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return &ValidationError{Shape: ShapeCheckpoint, Invalid: []string{"(payload is not a sequence)"}}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return &ValidationError{Shape: ShapeCheckpoint, Invalid: []string{"(payload is not a sequence)"}}
	}
	for _, elem := range elems {
		if err := ValidateCheckpoint(elem); err != nil {
			return err
		}
	}
	return nil
}

// DecodeContent validates raw and, on success, unmarshals it into out.
func DecodeContent(raw []byte, out any) error {
	if err := ValidateContent(raw); err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// DecodeCheckpoint validates raw and, on success, unmarshals it into out.
func DecodeCheckpoint(raw []byte, out any) error {
	if err := ValidateCheckpoint(raw); err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func decodeObject(raw []byte, shape Shape) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil || obj == nil {
		return nil, &ValidationError{Shape: shape, Invalid: []string{"(payload is not an object)"}}
	}
	return obj, nil
}
