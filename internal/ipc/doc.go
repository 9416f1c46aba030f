// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management, request/response DTOs, and conversions
// between history models and lightweight wire representations. Streaming is
// modeled as offset-based tailing: the client repeatedly calls ConvertEvents
// with its last-seen cursor until the response reports the job done.
package ipc
