package envconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Built-in type names.
const (
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeFloat   = "float"
	TypeJSON    = "json"
)

// TypeDefinition describes how raw string values of one named type are
// recognised, validated and converted.
type TypeDefinition interface {
	// IsType reports whether an example or default value belongs to the type.
	IsType(example any) bool
	// Validate returns a descriptive error when raw is not a valid value.
	Validate(raw string) error
	// Cast converts a validated raw value.
	Cast(raw string) (any, error)
}

// Type is a TypeDefinition assembled from functions.
//
// Check takes priority over Valid. When neither is set every raw value is
// valid. A nil Is never matches, so the type is only used when named
// explicitly in Options.Types. A nil Convert returns the raw string.
type Type struct {
	Name    string
	Is      func(example any) bool
	Valid   func(raw string) bool
	Check   func(raw string) error
	Convert func(raw string) (any, error)
}

// IsType implements TypeDefinition.
func (t Type) IsType(example any) bool {
	if t.Is == nil {
		return false
	}
	return t.Is(example)
}

// Validate implements TypeDefinition.
func (t Type) Validate(raw string) error {
	if t.Check != nil {
		return t.Check(raw)
	}
	if t.Valid != nil && !t.Valid(raw) {
		if t.Name == "" {
			return errors.New("must be a valid value")
		}
		return fmt.Errorf("must be valid %s", t.Name)
	}
	return nil
}

// Cast implements TypeDefinition.
func (t Type) Cast(raw string) (any, error) {
	if t.Convert == nil {
		return raw, nil
	}
	return t.Convert(raw)
}

var (
	trueValues  = []string{"t", "true", "1"}
	falseValues = []string{"f", "false", "0"}

	integerPattern = regexp.MustCompile(`^(?:0|[1-9][0-9]*)$`)
)

// Boolean accepts t, true, 1, f, false and 0 in any letter case.
var Boolean = Type{
	Name: TypeBoolean,
	Is: func(v any) bool {
		_, ok := v.(bool)
		return ok
	},
	Check: func(raw string) error {
		lower := strings.ToLower(raw)
		if contains(trueValues, lower) || contains(falseValues, lower) {
			return nil
		}
		return fmt.Errorf("must be one of %s or %s", strings.Join(trueValues, ", "), strings.Join(falseValues, ", "))
	},
	Convert: func(raw string) (any, error) {
		return contains(trueValues, strings.ToLower(raw)), nil
	},
}

// Integer accepts unsigned decimal integers without leading zeros.
var Integer = Type{
	Name: TypeInteger,
	Is:   isInteger,
	Check: func(raw string) error {
		if !integerPattern.MatchString(raw) {
			return errors.New("must be valid integer")
		}
		if _, err := strconv.Atoi(raw); err != nil {
			return errors.New("must be valid integer: out of range")
		}
		return nil
	},
	Convert: func(raw string) (any, error) {
		return strconv.Atoi(raw)
	},
}

// Float accepts anything strconv.ParseFloat accepts, except NaN.
var Float = Type{
	Name: TypeFloat,
	Is:   isFloat,
	Valid: func(raw string) bool {
		f, err := strconv.ParseFloat(raw, 64)
		return err == nil && !math.IsNaN(f)
	},
	Convert: func(raw string) (any, error) {
		return strconv.ParseFloat(raw, 64)
	},
}

// JSON accepts any JSON document and casts it to the decoded value.
var JSON = Type{
	Name: TypeJSON,
	Is:   isJSONShaped,
	Valid: func(raw string) bool {
		return json.Valid([]byte(raw))
	},
	Convert: func(raw string) (any, error) {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, err
		}
		return v, nil
	},
}

// Inference goes by the Go type of the example, never its value: 3.0 held in
// a float64 is a float. Named types such as time.Duration match nothing here.
func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := n.Int64()
		return err == nil
	}
	return false
}

func isFloat(v any) bool {
	switch n := v.(type) {
	case float32, float64:
		return true
	case json.Number:
		if _, err := n.Int64(); err == nil {
			return false
		}
		_, err := n.Float64()
		return err == nil
	}
	return false
}

func isJSONShaped(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return true
	}
	return false
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
