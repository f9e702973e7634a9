// Package script defines scene and script types plus the deterministic local
// segmenter used when no LLM credential is available.
package script
