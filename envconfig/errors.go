package envconfig

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidOption is returned when Options are malformed. Nothing is resolved.
	ErrInvalidOption = errors.New("invalid option")
	// ErrMissingKeys is matched by *MissingKeysError.
	ErrMissingKeys = errors.New("missing required configuration keys")
	// ErrUnsupportedType is returned when a type name is not in the registry.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrInvalidValue is returned when a raw value fails its type's validation.
	ErrInvalidValue = errors.New("invalid value")
)

// MissingKeysError lists every required key that resolved to a missing value.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("config is missing the following keys: %s", strings.Join(e.Keys, ", "))
}

// Is reports whether target is ErrMissingKeys.
func (e *MissingKeysError) Is(target error) bool {
	return target == ErrMissingKeys
}
