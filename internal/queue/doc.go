// Package queue persists production runs and their lifecycle in SQLite.
package queue
