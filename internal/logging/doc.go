// Package logging provides slog construction and shared structured field helpers.
package logging
