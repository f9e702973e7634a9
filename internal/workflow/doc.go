// Package workflow coordinates the story-to-video pipeline. A Producer
// moves a run through scripting, per-scene media generation, scoring, and
// final assembly, persisting every status change in the run store.
package workflow
