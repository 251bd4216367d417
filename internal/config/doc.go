// Package config loads, normalizes, and validates the moviematch TOML
// configuration.
//
// Load looks for an explicit path first, then ~/.config/moviematch/config.toml,
// then ./moviematch.toml, and falls back to Default when none exists. The
// MOVIEMATCH_DB environment variable overrides paths.database.
package config
