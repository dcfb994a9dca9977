// Package dotenv reads and writes KEY=VALUE environment files.
package dotenv

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultPath is the file read when no path is configured.
const DefaultPath = ".env"

// Read parses the file at path. A missing file yields an error matching
// fs.ErrNotExist; a file that exists but fails to parse is an error too.
func Read(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dotenv file %s: %w", path, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("open dotenv file: %w", err)
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse dotenv file %s: %w", path, err)
	}
	return values, nil
}

// Marshal renders values as sorted KEY="VALUE" lines.
func Marshal(values map[string]string) (string, error) {
	out, err := godotenv.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal dotenv: %w", err)
	}
	return out, nil
}
