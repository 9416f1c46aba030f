// Package worker launches the external conversion worker process and turns
// its line-oriented output into typed events and a single terminal outcome.
//
// Two invocation styles are supported: streaming conversions, whose stdout
// carries tagged JSON event lines that are dispatched to a listener while the
// process runs, and simple administrative commands, whose entire stdout is
// parsed as one JSON document after the process exits.
package worker
