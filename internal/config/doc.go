// Package config loads campusfound configuration from a TOML file, an
// optional .env file and CAMPUSFOUND_* environment variables.
package config
