// Package config loads, normalizes, and validates gantry's TOML
// configuration. Defaults live in defaults.go, path expansion and value
// cleanup in normalize.go, and semantic checks in validate.go.
package config
