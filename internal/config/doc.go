// Package config loads and validates mediabin configuration from TOML.
//
// Configuration is resolved from an explicit --config path, then
// ~/.config/mediabin/config.toml, then ./mediabin.toml, falling back to
// built-in defaults when no file exists. All path fields are expanded
// (~ resolution) and normalized to absolute paths before validation.
package config
