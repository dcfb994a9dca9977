package envconfig

import "os"

// Source is one candidate mapping in the precedence chain.
type Source interface {
	// Lookup reports the value for key and whether the source defines it.
	Lookup(key string) (any, bool)
}

// Map is a Source backed by arbitrary values, such as defaults.
type Map map[string]any

// Lookup implements Source.
func (m Map) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// StringMap is a Source backed by string values, such as a parsed dotenv file.
type StringMap map[string]string

// Lookup implements Source.
func (m StringMap) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// ProcessEnv reads the live process environment. It never modifies it.
type ProcessEnv struct{}

// Lookup implements Source.
func (ProcessEnv) Lookup(key string) (any, bool) {
	v, ok := os.LookupEnv(key)
	return v, ok
}

// lookup scans sources in order and returns the first defined value.
func lookup(sources []Source, key string) (any, int, bool) {
	for i, src := range sources {
		if src == nil {
			continue
		}
		if v, ok := src.Lookup(key); ok {
			return v, i, true
		}
	}
	return nil, -1, false
}
