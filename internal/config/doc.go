// Package config loads, validates, and normalizes the docpress TOML
// configuration. Paths are tilde-expanded and made absolute at load time so
// the rest of the application never sees relative or unexpanded paths.
package config
