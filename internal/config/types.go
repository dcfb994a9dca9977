package config

import (
	"strings"
	"time"

	"github.com/eugenenazirov/envcast/envconfig"
)

// Extra type names available to declaration files and the binary's settings.
const (
	TypeDuration  = "duration"
	TypeTimestamp = "timestamp"
	TypeList      = "list"
)

// ExtraTypes returns the types envcast registers on top of the built-ins.
func ExtraTypes() map[string]envconfig.TypeDefinition {
	return map[string]envconfig.TypeDefinition{
		TypeDuration: envconfig.Type{
			Name: TypeDuration,
			Is: func(v any) bool {
				_, ok := v.(time.Duration)
				return ok
			},
			Valid: func(raw string) bool {
				_, err := time.ParseDuration(raw)
				return err == nil
			},
			Convert: func(raw string) (any, error) {
				return time.ParseDuration(raw)
			},
		},
		TypeTimestamp: envconfig.Type{
			Name: TypeTimestamp,
			Is: func(v any) bool {
				_, ok := v.(time.Time)
				return ok
			},
			Valid: func(raw string) bool {
				_, err := time.Parse(time.RFC3339Nano, raw)
				return err == nil
			},
			Convert: func(raw string) (any, error) {
				return time.Parse(time.RFC3339Nano, raw)
			},
		},
		// list is only used when declared explicitly.
		TypeList: envconfig.Type{
			Name:    TypeList,
			Convert: splitList,
		},
	}
}

func splitList(raw string) (any, error) {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out, nil
}
