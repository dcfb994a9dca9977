// Package config loads the envcast binary's own settings and the declaration
// files that describe the configuration a process needs.
//
// The binary's settings resolve through envconfig with precedence: CLI flags >
// Environment variables > .env file > Defaults. Declaration files (YAML or
// TOML) list required keys, defaults, explicit types and source order, and
// convert into envconfig.Options.
package config
