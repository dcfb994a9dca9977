// Package render writes resolved configuration in the formats envcast prints.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/envcast/internal/dotenv"
)

// Output formats.
const (
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatDotEnv = "dotenv"
)

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatJSON, FormatYAML, FormatDotEnv}
}

// Write renders values to w in the given format.
func Write(w io.Writer, values map[string]any, format string) error {
	normalized := Normalize(values)

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(normalized); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(normalized); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	case FormatDotEnv:
		flat, err := flatten(normalized)
		if err != nil {
			return err
		}
		out, err := dotenv.Marshal(flat)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, out+"\n"); err != nil {
			return fmt.Errorf("write dotenv: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	return nil
}

// Normalize converts durations, timestamps and non-finite floats to their
// string forms so every format renders them the way they are written in the
// environment.
func Normalize(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		switch v := value.(type) {
		case time.Duration:
			out[key] = v.String()
		case time.Time:
			out[key] = v.Format(time.RFC3339Nano)
		case float64:
			out[key] = normalizeFloat(v, v, 64)
		case float32:
			out[key] = normalizeFloat(v, float64(v), 32)
		default:
			out[key] = value
		}
	}
	return out
}

// normalizeFloat keeps finite values numeric. JSON has no representation
// for ±Inf, so those become "+Inf" and "-Inf".
func normalizeFloat(original any, v float64, bitSize int) any {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, bitSize)
	}
	return original
}

// flatten turns every value into the string that casts back to it. Nil
// values are omitted.
func flatten(values map[string]any) (map[string]string, error) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(values))
	for _, key := range keys {
		switch v := values[key].(type) {
		case nil:
			continue
		case string:
			out[key] = v
		case bool:
			out[key] = strconv.FormatBool(v)
		case int:
			out[key] = strconv.Itoa(v)
		case float64:
			out[key] = strconv.FormatFloat(v, 'g', -1, 64)
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", key, err)
			}
			out[key] = string(encoded)
		}
	}
	return out, nil
}
