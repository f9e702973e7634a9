// Package services holds the shared error taxonomy, context annotations, and
// remote API clients used by pipeline stages.
package services
