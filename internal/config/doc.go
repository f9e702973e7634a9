// Package config loads, normalizes, and validates storyreel configuration.
package config
