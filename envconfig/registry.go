package envconfig

import (
	"reflect"
	"slices"
	"sort"
)

var builtinTypes = []struct {
	name string
	def  TypeDefinition
}{
	{TypeBoolean, Boolean},
	{TypeInteger, Integer},
	{TypeFloat, Float},
	{TypeJSON, JSON},
}

// Registry is an ordered set of named type definitions. Built-ins come
// first in declaration order, followed by custom types sorted by name. A
// custom type sharing a built-in's name replaces it in place.
type Registry struct {
	names []string
	defs  map[string]TypeDefinition
}

// NewRegistry merges custom definitions on top of the built-in types. Nil
// definitions, including typed nil pointers, are ignored.
func NewRegistry(custom map[string]TypeDefinition) *Registry {
	r := &Registry{
		names: make([]string, 0, len(builtinTypes)+len(custom)),
		defs:  make(map[string]TypeDefinition, len(builtinTypes)+len(custom)),
	}
	for _, b := range builtinTypes {
		r.names = append(r.names, b.name)
		r.defs[b.name] = b.def
	}

	extra := make([]string, 0, len(custom))
	for name, def := range custom {
		if isNilDefinition(def) {
			continue
		}
		extra = append(extra, name)
	}
	sort.Strings(extra)

	for _, name := range extra {
		if _, ok := r.defs[name]; !ok {
			r.names = append(r.names, name)
		}
		r.defs[name] = custom[name]
	}
	return r
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (TypeDefinition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Infer returns the name of the first type whose IsType accepts example.
func (r *Registry) Infer(example any) (string, bool) {
	if example == nil {
		return "", false
	}
	for _, name := range r.names {
		if r.defs[name].IsType(example) {
			return name, true
		}
	}
	return "", false
}

// Names returns the registered type names in probe order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

func isNilDefinition(def TypeDefinition) bool {
	if def == nil {
		return true
	}
	switch rv := reflect.ValueOf(def); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Interface, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
