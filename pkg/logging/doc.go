// Package logging provides structured, zerolog-backed logging with
// workflow/execution/node context propagation for the engine.
package logging
