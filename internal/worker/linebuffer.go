package worker

import "strings"

// LineBuffer reassembles newline-terminated messages from arbitrarily split
// stream chunks. Content after the last newline stays buffered until a later
// Feed call completes the line. The zero value is ready to use.
//
// A stream's stdout and stderr must each use their own LineBuffer so partial
// lines from the two streams never interleave.
type LineBuffer struct {
	remainder string
}

// Feed appends chunk to the buffer and returns every complete line found, in
// order, trimmed of surrounding whitespace. The trailing newline is consumed.
func (b *LineBuffer) Feed(chunk string) []string {
	if chunk == "" {
		return nil
	}
	b.remainder += chunk

	var lines []string
	for {
		idx := strings.IndexByte(b.remainder, '\n')
		if idx < 0 {
			break
		}
		lines = append(lines, strings.TrimSpace(b.remainder[:idx]))
		b.remainder = b.remainder[idx+1:]
	}
	return lines
}

// Rest returns the buffered content that has not yet been terminated by a
// newline. Feed never emits this content on its own; the worker is expected
// to end every message with a newline, and an unterminated trailing stdout
// line is intentionally dropped when the process exits.
func (b *LineBuffer) Rest() string {
	return b.remainder
}
