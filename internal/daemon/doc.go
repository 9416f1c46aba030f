// Package daemon coordinates background conversion jobs and enforces
// single-instance execution.
package daemon
