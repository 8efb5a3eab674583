// Package config loads, normalizes, and validates tubescribe configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_TOKEN and AWS_REGION. The Config type centralizes every knob the CLI
// and pipeline need so output directories, collaborator binaries, and
// recognition backends are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical language preferences, and clear validation
// errors.
package config
