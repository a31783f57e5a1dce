// Package config loads, normalizes, and validates devbox configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DEVBOX_PROJECT_ROOT and DEVBOX_SERVER_PORT. The Config type centralizes every
// knob the setup and launch phases need, so package lists, the web UI command,
// and state/log locations are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
