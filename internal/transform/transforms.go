package transform

import (
	"fmt"
	"strconv"
	"strings"
)

// transform is a named pure value conversion with declared input and output
// type sets. A connection may only use a transform whose input set contains
// the connection's source type and whose output set contains its target type.
type transform struct {
	inputs  map[string]bool
	outputs map[string]bool
	apply   func(value interface{}) (interface{}, error)
}

func typeSet(types ...string) map[string]bool {
	s := make(map[string]bool, len(types))
	for _, t := range types {
		s[t] = true
	}
	return s
}

var registry = map[string]transform{
	"string": {
		inputs:  typeSet(TypeString, TypeNumber, TypeBoolean, TypeArray, TypeObject),
		outputs: typeSet(TypeString),
		apply: func(value interface{}) (interface{}, error) {
			return fmt.Sprint(value), nil
		},
	},
	"number": {
		inputs:  typeSet(TypeString, TypeNumber),
		outputs: typeSet(TypeNumber),
		apply: func(value interface{}) (interface{}, error) {
			switch v := value.(type) {
			case float64:
				return v, nil
			case int:
				return float64(v), nil
			case string:
				n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
				if err != nil {
					return nil, fmt.Errorf("cannot convert %q to number: %w", v, err)
				}
				return n, nil
			default:
				return nil, fmt.Errorf("cannot convert %T to number", value)
			}
		},
	},
	"boolean": {
		inputs:  typeSet(TypeString, TypeBoolean),
		outputs: typeSet(TypeBoolean),
		apply: func(value interface{}) (interface{}, error) {
			switch v := value.(type) {
			case bool:
				return v, nil
			case string:
				b, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(v)))
				if err != nil {
					return nil, fmt.Errorf("cannot convert %q to boolean: %w", v, err)
				}
				return b, nil
			default:
				return nil, fmt.Errorf("cannot convert %T to boolean", value)
			}
		},
	},
	"upper": {
		inputs:  typeSet(TypeString),
		outputs: typeSet(TypeString),
		apply: func(value interface{}) (interface{}, error) {
			s, err := asString(value)
			if err != nil {
				return nil, err
			}
			return strings.ToUpper(s), nil
		},
	},
	"lower": {
		inputs:  typeSet(TypeString),
		outputs: typeSet(TypeString),
		apply: func(value interface{}) (interface{}, error) {
			s, err := asString(value)
			if err != nil {
				return nil, err
			}
			return strings.ToLower(s), nil
		},
	},
	"trim": {
		inputs:  typeSet(TypeString),
		outputs: typeSet(TypeString),
		apply: func(value interface{}) (interface{}, error) {
			s, err := asString(value)
			if err != nil {
				return nil, err
			}
			return strings.TrimSpace(s), nil
		},
	},
	"bearer-prefix": {
		inputs:  typeSet(TypeString),
		outputs: typeSet(TypeString),
		apply: func(value interface{}) (interface{}, error) {
			s, err := asString(value)
			if err != nil {
				return nil, err
			}
			if strings.HasPrefix(s, "Bearer ") {
				return s, nil
			}
			return "Bearer " + s, nil
		},
	},
	"array-wrap": {
		inputs:  typeSet(TypeString, TypeNumber, TypeBoolean, TypeObject),
		outputs: typeSet(TypeArray),
		apply: func(value interface{}) (interface{}, error) {
			return []interface{}{value}, nil
		},
	},
	"array-first": {
		inputs:  typeSet(TypeArray),
		outputs: typeSet(TypeString, TypeNumber, TypeBoolean, TypeObject),
		apply: func(value interface{}) (interface{}, error) {
			arr, ok := value.([]interface{})
			if !ok {
				return nil, fmt.Errorf("array-first requires an array, got %T", value)
			}
			if len(arr) == 0 {
				return nil, fmt.Errorf("array-first applied to empty array")
			}
			return arr[0], nil
		},
	},
}

func asString(value interface{}) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", value)
	}
	return s, nil
}

// Apply runs the named transform against value.
func Apply(name string, value interface{}) (interface{}, error) {
	t, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown transform: %s", name)
	}
	return t.apply(value)
}
