package envconfig

import "fmt"

// Cast converts value to the type registered under typeName.
//
// Values that are not strings, and any value with an empty typeName, are
// returned unchanged. A nil registry holds only the built-in types.
func Cast(value any, typeName string, registry *Registry) (any, error) {
	raw, ok := value.(string)
	if !ok || typeName == "" {
		return value, nil
	}
	if registry == nil {
		registry = NewRegistry(nil)
	}

	def, ok := registry.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedType, typeName)
	}

	if err := def.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w %q for type %s: %w", ErrInvalidValue, raw, typeName, err)
	}

	out, err := def.Cast(raw)
	if err != nil {
		return nil, fmt.Errorf("%w %q for type %s: %w", ErrInvalidValue, raw, typeName, err)
	}
	return out, nil
}
