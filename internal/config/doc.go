// Package config loads, normalizes, and validates echoprep configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies ECHOPREP_* environment overrides.
// The Config type centralizes every knob the split and expand commands need so
// input locations are declared once instead of being edited into scripts.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
