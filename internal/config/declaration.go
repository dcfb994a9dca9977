package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/envcast/envconfig"
)

// Source names accepted in Declaration.Order.
const (
	SourceEnv  = "env"
	SourceFile = "file"
)

// Declaration is the on-disk description of the configuration a process
// needs. It is decoded from YAML (.yaml, .yml) or TOML (.toml).
type Declaration struct {
	DotEnv   string            `yaml:"dotenv" toml:"dotenv"`
	Required []string          `yaml:"required" toml:"required" validate:"dive,required"`
	Defaults map[string]any    `yaml:"defaults" toml:"defaults" validate:"dive,keys,required,endkeys"`
	Types    map[string]string `yaml:"types" toml:"types" validate:"dive,keys,required,endkeys,required"`
	Examples map[string]any    `yaml:"examples" toml:"examples" validate:"dive,keys,required,endkeys"`
	// Strict treats empty strings and empty collections as missing.
	Strict bool `yaml:"strict" toml:"strict"`
	// Order overrides source precedence. Nil keeps env before file; an empty
	// list leaves only the defaults.
	Order []string `yaml:"order" toml:"order" validate:"unique,dive,oneof=env file"`
}

var validate = validator.New()

// LoadDeclaration reads and validates the declaration file at path.
func LoadDeclaration(path string) (*Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read declaration: %w", err)
	}

	var decl *Declaration
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		decl, err = parseTOML(data)
	case ".yaml", ".yml", "":
		decl, err = parseYAML(data)
	default:
		return nil, fmt.Errorf("%w: unsupported declaration format %q", envconfig.ErrInvalidOption, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse declaration %s: %w", path, err)
	}

	if err := validate.Struct(decl); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", envconfig.ErrInvalidOption, path, err)
	}
	return decl, nil
}

// parseYAML decodes data, rejecting unknown fields. Shape mismatches such
// as a mapping where a list is expected surface as ErrInvalidOption.
func parseYAML(data []byte) (*Declaration, error) {
	var decl Declaration
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&decl); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", envconfig.ErrInvalidOption, err)
	}
	return &decl, nil
}

func parseTOML(data []byte) (*Declaration, error) {
	var decl Declaration
	md, err := toml.Decode(string(data), &decl)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", envconfig.ErrInvalidOption, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: unknown fields %s", envconfig.ErrInvalidOption, strings.Join(keys, ", "))
	}
	return &decl, nil
}

// Options converts the declaration into resolver options. environment may
// be nil to read the process environment.
func (d *Declaration) Options(environment envconfig.Source, logger *zap.Logger) envconfig.Options {
	opts := envconfig.Options{
		Defaults:      d.Defaults,
		Required:      d.Required,
		Types:         d.Types,
		TypeDefs:      ExtraTypes(),
		ExampleValues: d.Examples,
		DotEnvPath:    d.DotEnv,
		Environment:   environment,
		Logger:        logger,
	}
	if d.Strict {
		opts.IsMissing = envconfig.IsEmpty
	}
	if d.Order != nil {
		order := d.Order
		opts.Candidates = func(o envconfig.Options) ([]envconfig.Source, error) {
			return orderedSources(o, order)
		}
	}
	return opts
}

func orderedSources(opts envconfig.Options, order []string) ([]envconfig.Source, error) {
	sources := make([]envconfig.Source, 0, len(order))
	for _, name := range order {
		switch name {
		case SourceEnv:
			sources = append(sources, opts.EnvironmentSource())
		case SourceFile:
			file, err := opts.FileSource()
			if err != nil {
				return nil, err
			}
			if file != nil {
				sources = append(sources, file)
			}
		default:
			return nil, fmt.Errorf("%w: unknown source %q", envconfig.ErrInvalidOption, name)
		}
	}
	return sources, nil
}
