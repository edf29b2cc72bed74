package tool

import (
	"encoding/json"
	"fmt"
	"math"

	lecternErrors "github.com/harunnryd/lectern/internal/errors"
	"github.com/harunnryd/lectern/internal/model/contract"
)

// ValidateInput checks if the JSON input matches the tool's input schema.
// Unknown fields are allowed.
func ValidateInput(schema contract.InputSchema, input json.RawMessage) error {
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	var inputMap map[string]interface{}
	if err := json.Unmarshal(input, &inputMap); err != nil {
		return fmt.Errorf("%w: input must be a JSON object: %v", lecternErrors.ErrInvalidToolInput, err)
	}
	if inputMap == nil {
		return fmt.Errorf("%w: input must be a JSON object", lecternErrors.ErrInvalidToolInput)
	}

	for _, field := range schema.Required {
		if value, exists := inputMap[field]; !exists || value == nil {
			return fmt.Errorf("%w: missing required field: %s", lecternErrors.ErrInvalidToolInput, field)
		}
	}

	for key, value := range inputMap {
		prop, defined := schema.Properties[key]
		if !defined {
			continue
		}
		// null stands in for an omitted optional argument
		if value == nil {
			continue
		}
		if err := validateType(key, prop.Type, value); err != nil {
			return fmt.Errorf("%w: %v", lecternErrors.ErrInvalidToolInput, err)
		}
	}

	return nil
}

func validateType(fieldName string, expectedType string, value interface{}) error {
	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field '%s' expected string, got %T", fieldName, value)
		}
	case "number":
		// JSON unmarshals numbers to float64
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("field '%s' expected number, got %T", fieldName, value)
		}
	case "integer":
		n, ok := value.(float64)
		if !ok || n != math.Trunc(n) {
			return fmt.Errorf("field '%s' expected integer, got %v", fieldName, value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field '%s' expected boolean, got %T", fieldName, value)
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("field '%s' expected array, got %T", fieldName, value)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("field '%s' expected object, got %T", fieldName, value)
		}
	}

	return nil
}
