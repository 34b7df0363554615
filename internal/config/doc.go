// Package config loads, normalizes, and validates cropflow configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// CROPFLOW_REGISTRY_PATH and CROPFLOW_LOG_LEVEL. The Config type centralizes
// the registry location, output directories and matching parallelism so every
// command sees the same settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
