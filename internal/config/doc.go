// Package config defines the project settings rpmstamp works with and provides
// helpers to load, validate and save them in YAML format.
//
// Settings come from rpmstamp.yaml (or built-in defaults), a .env file and the
// PYTHON environment variable, in increasing order of precedence.
package config
