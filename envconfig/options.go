package envconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"sort"

	"go.uber.org/zap"

	"github.com/eugenenazirov/envcast/internal/dotenv"
)

// Options declares the configuration to resolve.
type Options struct {
	// Defaults maps keys to example values. The value drives type inference
	// and is used as-is when no other source defines the key.
	Defaults map[string]any
	// Required keys must resolve to a value IsMissing accepts.
	Required []string
	// Types names the type of a key explicitly, overriding inference.
	Types map[string]string
	// TypeDefs adds types to the registry or replaces built-ins by name.
	TypeDefs map[string]TypeDefinition
	// ExampleValues overrides the value used for type inference per key
	// without changing the fallback default.
	ExampleValues map[string]any

	// DotEnvPath is the environment file to read. Defaults to ".env".
	DotEnvPath string
	// IsMissing decides whether a resolved required value counts as absent.
	// Defaults to IsNil.
	IsMissing func(value any) bool
	// Candidates builds the ordered sources consulted before Defaults.
	// Defaults to DefaultCandidates.
	Candidates func(opts Options) ([]Source, error)
	// Environment is the process environment source. Defaults to ProcessEnv.
	Environment Source

	Logger *zap.Logger
}

// IsNil treats only nil as missing.
func IsNil(value any) bool {
	return value == nil
}

// IsEmpty treats nil, empty strings, empty slices, arrays and maps as missing.
func IsEmpty(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// DefaultCandidates returns the process environment followed by the dotenv
// file when it exists.
func DefaultCandidates(opts Options) ([]Source, error) {
	file, err := opts.FileSource()
	if err != nil {
		return nil, err
	}
	sources := []Source{opts.EnvironmentSource()}
	if file != nil {
		sources = append(sources, file)
	}
	return sources, nil
}

// EnvironmentSource returns opts.Environment, or the live process
// environment when unset.
func (o Options) EnvironmentSource() Source {
	if o.Environment != nil {
		return o.Environment
	}
	return ProcessEnv{}
}

// FileSource reads the dotenv file. It returns a nil Source and no error
// when the file does not exist.
func (o Options) FileSource() (Source, error) {
	path := o.DotEnvPath
	if path == "" {
		path = dotenv.DefaultPath
	}

	values, err := dotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return StringMap(values), nil
}

func (o Options) withDefaults() Options {
	if o.IsMissing == nil {
		o.IsMissing = IsNil
	}
	if o.Candidates == nil {
		o.Candidates = DefaultCandidates
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func (o Options) validate() error {
	for i, key := range o.Required {
		if key == "" {
			return fmt.Errorf("%w: required[%d] is an empty key", ErrInvalidOption, i)
		}
	}
	for _, group := range []struct {
		name string
		keys []string
	}{
		{"defaults", sortedKeys(o.Defaults)},
		{"types", sortedKeys(o.Types)},
		{"example values", sortedKeys(o.ExampleValues)},
		{"type definitions", sortedKeys(o.TypeDefs)},
	} {
		for _, key := range group.keys {
			if key == "" {
				return fmt.Errorf("%w: %s contain an empty key", ErrInvalidOption, group.name)
			}
		}
	}
	for _, key := range sortedKeys(o.Types) {
		if o.Types[key] == "" {
			return fmt.Errorf("%w: types[%s] is empty", ErrInvalidOption, key)
		}
	}
	for _, name := range sortedKeys(o.TypeDefs) {
		if isNilDefinition(o.TypeDefs[name]) {
			return fmt.Errorf("%w: type definition %s is nil", ErrInvalidOption, name)
		}
	}
	return nil
}

// keys returns Required ∪ keys(Defaults) ∪ keys(Types), sorted.
func (o Options) keys() []string {
	set := make(map[string]struct{}, len(o.Required)+len(o.Defaults)+len(o.Types))
	for _, key := range o.Required {
		set[key] = struct{}{}
	}
	for key := range o.Defaults {
		set[key] = struct{}{}
	}
	for key := range o.Types {
		set[key] = struct{}{}
	}
	return sortedKeys(set)
}

// typeHint picks the explicit type, then infers from the example value,
// then from the default.
func (o Options) typeHint(key string, registry *Registry) string {
	if name, ok := o.Types[key]; ok {
		return name
	}
	example, ok := o.ExampleValues[key]
	if !ok {
		example = o.Defaults[key]
	}
	name, _ := registry.Infer(example)
	return name
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
