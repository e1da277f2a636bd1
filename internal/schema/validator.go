package schema

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"api-orchestrator/internal/types"
)

// Validate checks a single value against its parameter definition. The
// validator is pure: it never mutates the value or the definition.
//
// A required parameter that is empty (nil or empty string) produces exactly
// one error and no further checks run. An optional empty parameter is valid.
// A type mismatch is an error, but constraint and nested checks still run
// best-effort so one pass reports as much as possible.
func Validate(name string, value interface{}, def *types.ParameterDefinition) types.ValidationResult {
	result := types.ValidationResult{IsValid: true}
	if def == nil {
		return result
	}

	if isEmpty(value) {
		if def.Required {
			result.AddError("parameter %q is required", name)
		}
		return result
	}

	if !matchesType(value, def.Type) {
		result.AddError("parameter %q must be of type %s, got %s", name, def.Type, valueTypeName(value))
	}

	checkConstraints(name, value, def, &result)

	switch def.Type {
	case types.TypeObject:
		if obj, ok := value.(map[string]interface{}); ok {
			validateObject(name, obj, def.Properties, &result)
		}
	case types.TypeArray:
		if arr, ok := value.([]interface{}); ok && def.Items != nil {
			for i, item := range arr {
				result.Merge(Validate(fmt.Sprintf("%s[%d]", name, i), item, def.Items))
			}
		}
	}

	return result
}

// ValidateParameters validates each declared parameter against its
// definition and emits a warning for every supplied key that has no
// definition. Undeclared keys are never an error: upstream data routinely
// carries fields the target endpoint does not care about.
func ValidateParameters(values map[string]interface{}, defs map[string]*types.ParameterDefinition) types.ValidationResult {
	result := types.ValidationResult{IsValid: true}

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		result.Merge(Validate(name, values[name], defs[name]))
	}

	extra := make([]string, 0)
	for key := range values {
		if _, declared := defs[key]; !declared {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		result.AddWarning("parameter %q is not declared in the schema", key)
	}

	return result
}

func validateObject(name string, obj map[string]interface{}, props map[string]*types.ParameterDefinition, result *types.ValidationResult) {
	names := make([]string, 0, len(props))
	for prop := range props {
		names = append(names, prop)
	}
	sort.Strings(names)
	for _, prop := range names {
		// A missing declared property is evaluated as empty against its
		// own definition, so required nested fields surface errors.
		result.Merge(Validate(name+"."+prop, obj[prop], props[prop]))
	}
}

func checkConstraints(name string, value interface{}, def *types.ParameterDefinition, result *types.ValidationResult) {
	v := def.Validation
	if v == nil {
		return
	}

	if n, ok := asNumber(value); ok {
		if v.Min != nil && n < *v.Min {
			result.AddError("parameter %q value %v is below minimum %v", name, value, *v.Min)
		}
		if v.Max != nil && n > *v.Max {
			result.AddError("parameter %q value %v is above maximum %v", name, value, *v.Max)
		}
	}

	if s, ok := value.(string); ok && v.Pattern != "" {
		re, err := regexp.Compile(v.Pattern)
		if err != nil {
			result.AddError("parameter %q has invalid pattern %q: %v", name, v.Pattern, err)
		} else if !re.MatchString(s) {
			result.AddError("parameter %q value %q does not match pattern %q", name, s, v.Pattern)
		}
	}

	if len(v.Enum) > 0 {
		found := false
		for _, allowed := range v.Enum {
			if equalValue(value, allowed) {
				found = true
				break
			}
		}
		if !found {
			result.AddError("parameter %q value %v is not one of the allowed values %v", name, value, v.Enum)
		}
	}
}

func isEmpty(value interface{}) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok && s == "" {
		return true
	}
	return false
}

// matchesType applies strict typing: numbers must be finite and not NaN,
// objects exclude arrays and nil.
func matchesType(value interface{}, typ string) bool {
	switch typ {
	case types.TypeString:
		_, ok := value.(string)
		return ok
	case types.TypeNumber:
		n, ok := asNumber(value)
		return ok && !math.IsNaN(n) && !math.IsInf(n, 0)
	case types.TypeBoolean:
		_, ok := value.(bool)
		return ok
	case types.TypeArray:
		_, ok := value.([]interface{})
		return ok
	case types.TypeObject:
		_, ok := value.(map[string]interface{})
		return ok
	default:
		return true
	}
}

func asNumber(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func equalValue(a, b interface{}) bool {
	if an, ok := asNumber(a); ok {
		if bn, ok := asNumber(b); ok {
			return an == bn
		}
		return false
	}
	return a == b
}

func valueTypeName(value interface{}) string {
	switch value.(type) {
	case string:
		return types.TypeString
	case bool:
		return types.TypeBoolean
	case float64, float32, int, int32, int64:
		return types.TypeNumber
	case []interface{}:
		return types.TypeArray
	case map[string]interface{}:
		return types.TypeObject
	default:
		return fmt.Sprintf("%T", value)
	}
}
