// Package config loads fetchkit client configuration from a YAML file, an
// optional .env file, and FETCHKIT_* environment variables, in increasing
// order of precedence.
package config
