// Package envconfig resolves runtime configuration from ordered sources and
// casts string values into the types implied by defaults, example values or
// explicit type names.
//
// Sources are consulted highest precedence first: the process environment,
// then the dotenv file (when it exists), then Options.Defaults. A key takes
// the value of the first source that defines it. Required keys that resolve
// to a missing value are reported together in one *MissingKeysError.
//
//	cfg, err := envconfig.Resolve(envconfig.Options{
//	    Required: []string{"DATABASE_URL"},
//	    Defaults: map[string]any{"PORT": 8080, "DEBUG": false},
//	})
//
// String values are cast through a Registry of TypeDefinition values. The
// built-in types are boolean, integer, float and json; Options.TypeDefs adds
// new types or replaces built-ins by name.
package envconfig
