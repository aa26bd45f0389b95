// Package config loads and validates the TOML configuration controlling tool
// binaries, quality-search tuning, audio profiles, encode history, and log
// output. Defaults apply when no file exists.
package config
