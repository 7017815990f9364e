// Package config loads, normalizes, and validates plex-file-namer settings.
//
// Settings come from a TOML file (the user config directory first, then
// plex-file-namer.toml in the working directory), with TMDB_API_KEY taking
// precedence over the file's key. Commands layer their flags on top of the
// loaded Config and pass explicit options down; nothing below cmd reads this
// package.
package config
