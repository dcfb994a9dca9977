package envconfig

import (
	"fmt"

	"go.uber.org/zap"
)

// Resolve builds the configuration declared by opts.
//
// Every key in Required, Defaults and Types appears in the result exactly
// once. When any required key is missing the call fails with a
// *MissingKeysError naming all of them; a cast failure fails the call with an
// error naming the key. No partial result is returned.
func Resolve(opts Options) (map[string]any, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	sources, err := opts.Candidates(opts)
	if err != nil {
		return nil, fmt.Errorf("build config sources: %w", err)
	}
	sources = append(sources, Map(opts.Defaults))

	keys := opts.keys()
	raw := make(map[string]any, len(keys))
	var missing []string
	for _, key := range keys {
		value, idx, found := lookup(sources, key)
		raw[key] = value
		opts.Logger.Debug("config key resolved",
			zap.String("key", key),
			zap.Bool("found", found),
			zap.Int("source", idx),
		)
	}

	for _, key := range sortedUnique(opts.Required) {
		if opts.IsMissing(raw[key]) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingKeysError{Keys: missing}
	}

	registry := NewRegistry(opts.TypeDefs)
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		value, err := Cast(raw[key], opts.typeHint(key, registry), registry)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}

func sortedUnique(keys []string) []string {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return sortedKeys(set)
}
