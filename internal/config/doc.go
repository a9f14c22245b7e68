// Package config loads the asctl configuration.
//
// Values are layered, later sources winning:
//
//  1. built-in defaults
//  2. the YAML config file
//  3. a .env file in the working directory
//  4. ASCTL_* environment variables
//
// The result is validated before it is returned.
package config
