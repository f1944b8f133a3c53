// Package config loads gamewiki's TOML configuration.
//
// Load fills Default() from the file, applies the PCGW_API_URL and
// PCGW_THROTTLE_MS environment overrides, expands paths, and validates the
// result. The sample written by `gamewiki config init` documents every key.
package config
