package transform

// Parameter type names used by connections and parameter definitions
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Compatible reports whether a value of sourceType can feed a target slot of
// targetType without a transform. Rules are checked in priority order:
// identical types, anything to string, string to number, string to boolean,
// array/object to object. Everything else is incompatible.
func Compatible(sourceType, targetType string) bool {
	if sourceType == targetType {
		return true
	}
	if targetType == TypeString {
		return true
	}
	if sourceType == TypeString && targetType == TypeNumber {
		return true
	}
	if sourceType == TypeString && targetType == TypeBoolean {
		return true
	}
	if (sourceType == TypeArray || sourceType == TypeObject) && targetType == TypeObject {
		return true
	}
	return false
}

// ValidTransform reports whether the named transform accepts sourceType as
// input and produces targetType as output.
func ValidTransform(name, sourceType, targetType string) bool {
	t, ok := registry[name]
	if !ok {
		return false
	}
	return t.inputs[sourceType] && t.outputs[targetType]
}

// KnownTransform reports whether name is a registered transform.
func KnownTransform(name string) bool {
	_, ok := registry[name]
	return ok
}
