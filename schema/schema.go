// Package schema describes entity records as JSON Schema and validates
// portable-format documents against those descriptions.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Validate checks a decoded JSON document against a JSON Schema (draft-07
// subset). Returns nil if validation passes or the schema is nil.
//
// Supported keywords:
//   - type (string, number, integer, boolean, object, array, null)
//   - properties, required, additionalProperties
//   - items (for arrays)
//   - minimum, maximum, exclusiveMinimum, exclusiveMaximum
//   - minLength, maxLength, format (date-time)
//   - minItems, maxItems
//   - enum
func Validate(schema map[string]any, doc any) error {
	if schema == nil {
		return nil
	}
	return validateValue(schema, doc, "$")
}

// ValidateJSON decodes raw and validates the result.
func ValidateJSON(schema map[string]any, raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("$: invalid JSON: %w", err)
	}
	return Validate(schema, doc)
}

func validateValue(schema map[string]any, value any, path string) error {
	if t, ok := schema["type"]; ok {
		if err := checkType(t, value, path); err != nil {
			return err
		}
	}

	if enumList, ok := schema["enum"].([]any); ok {
		if err := checkEnum(enumList, value, path); err != nil {
			return err
		}
	}

	switch v := value.(type) {
	case map[string]any:
		return validateObject(schema, v, path)
	case []any:
		return validateArray(schema, v, path)
	case string:
		return validateString(schema, v, path)
	case float64:
		return validateNumber(schema, v, path)
	case json.Number:
		f, _ := v.Float64()
		return validateNumber(schema, f, path)
	}
	return nil
}

// checkType accepts either a single type name or a list of names.
func checkType(t any, value any, path string) error {
	var names []string
	switch tv := t.(type) {
	case string:
		names = []string{tv}
	case []any:
		for _, n := range tv {
			if s, ok := n.(string); ok {
				names = append(names, s)
			}
		}
	default:
		return nil
	}
	actual := jsonType(value)
	for _, expected := range names {
		if typeMatches(expected, actual, value) {
			return nil
		}
	}
	return fmt.Errorf("%s: expected type %q, got %q", path, strings.Join(names, "|"), actual)
}

func typeMatches(expected, actual string, value any) bool {
	switch expected {
	case actual:
		return true
	case "integer":
		f, ok := value.(float64)
		return ok && f == float64(int64(f))
	case "number":
		return actual == "integer"
	}
	return false
}

func jsonType(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case int, int64:
		return "integer"
	default:
		return reflect.TypeOf(v).String()
	}
}

func checkEnum(allowed []any, value any, path string) error {
	for _, a := range allowed {
		if reflect.DeepEqual(a, value) {
			return nil
		}
	}
	return fmt.Errorf("%s: value not in enum %v", path, allowed)
}

func validateObject(schema map[string]any, obj map[string]any, path string) error {
	if reqList, ok := schema["required"].([]any); ok {
		for _, r := range reqList {
			if field, ok := r.(string); ok {
				if _, exists := obj[field]; !exists {
					return fmt.Errorf("%s: missing required field %q", path, field)
				}
			}
		}
	}

	propsMap, _ := schema["properties"].(map[string]any)
	for field, propSchema := range propsMap {
		val, exists := obj[field]
		if !exists {
			continue
		}
		ps, ok := propSchema.(map[string]any)
		if !ok {
			continue
		}
		if err := validateValue(ps, val, path+"."+field); err != nil {
			return err
		}
	}

	switch ap := schema["additionalProperties"].(type) {
	case bool:
		if ap {
			return nil
		}
		var extra []string
		for field := range obj {
			if _, defined := propsMap[field]; !defined {
				extra = append(extra, field)
			}
		}
		if len(extra) > 0 {
			return fmt.Errorf("%s: additional properties not allowed: %s", path, strings.Join(extra, ", "))
		}
	case map[string]any:
		for field, val := range obj {
			if _, defined := propsMap[field]; defined {
				continue
			}
			if err := validateValue(ap, val, path+"."+field); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateArray(schema map[string]any, arr []any, path string) error {
	if v, ok := toFloat(schema["minItems"]); ok && float64(len(arr)) < v {
		return fmt.Errorf("%s: array length %d is less than minItems %v", path, len(arr), v)
	}
	if v, ok := toFloat(schema["maxItems"]); ok && float64(len(arr)) > v {
		return fmt.Errorf("%s: array length %d is greater than maxItems %v", path, len(arr), v)
	}
	if itemSchema, ok := schema["items"].(map[string]any); ok {
		for i, elem := range arr {
			if err := validateValue(itemSchema, elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateString(schema map[string]any, s string, path string) error {
	if v, ok := toFloat(schema["minLength"]); ok && float64(len(s)) < v {
		return fmt.Errorf("%s: string length %d is less than minLength %v", path, len(s), v)
	}
	if v, ok := toFloat(schema["maxLength"]); ok && float64(len(s)) > v {
		return fmt.Errorf("%s: string length %d is greater than maxLength %v", path, len(s), v)
	}
	if format, _ := schema["format"].(string); format == "date-time" {
		if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
			return fmt.Errorf("%s: %q is not an RFC 3339 date-time", path, s)
		}
	}
	return nil
}

func validateNumber(schema map[string]any, n float64, path string) error {
	if v, ok := toFloat(schema["minimum"]); ok && n < v {
		return fmt.Errorf("%s: %v is less than minimum %v", path, n, v)
	}
	if v, ok := toFloat(schema["maximum"]); ok && n > v {
		return fmt.Errorf("%s: %v is greater than maximum %v", path, n, v)
	}
	if v, ok := toFloat(schema["exclusiveMinimum"]); ok && n <= v {
		return fmt.Errorf("%s: %v is not greater than exclusiveMinimum %v", path, n, v)
	}
	if v, ok := toFloat(schema["exclusiveMaximum"]); ok && n >= v {
		return fmt.Errorf("%s: %v is not less than exclusiveMaximum %v", path, n, v)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
