package sse

import (
	"fmt"
	"unicode/utf8"
)

// DecodeError reports malformed UTF-8 or JSON content in a stream.
type DecodeError struct {
	// Reason describes what failed to decode.
	Reason string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sse: decode %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("sse: decode %s", e.Reason)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error { return e.Err }

// lineDecoder turns arbitrarily chunked bytes into logical lines.
//
// Lines end on "\n", "\r\n", or a bare "\r". A trailing "\r" at the end of
// a chunk is held back until the next chunk disambiguates "\r\n" from a
// bare "\r", and a trailing partial line (which may end mid multi-byte
// sequence) is buffered and re-scanned once more bytes arrive. This makes
// the emitted line sequence invariant under re-chunking of the input.
type lineDecoder struct {
	buf []byte
	// skipLF is set after a line was terminated by a "\r" that ended a
	// chunk; a "\n" arriving first in the next chunk belongs to that
	// terminator and must be dropped.
	skipLF bool
}

// feed appends a chunk and returns every line completed by it.
func (d *lineDecoder) feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	if d.skipLF {
		d.skipLF = false
		if chunk[0] == '\n' {
			chunk = chunk[1:]
		}
	}
	d.buf = append(d.buf, chunk...)

	var lines []string
	start := 0
	for i := 0; i < len(d.buf); i++ {
		switch d.buf[i] {
		case '\n':
			lines = append(lines, string(d.buf[start:i]))
			start = i + 1
		case '\r':
			lines = append(lines, string(d.buf[start:i]))
			if i+1 < len(d.buf) {
				if d.buf[i+1] == '\n' {
					i++
				}
			} else {
				// Chunk ends exactly on "\r"; the paired "\n" may
				// open the next chunk.
				d.skipLF = true
			}
			start = i + 1
		}
	}
	d.buf = d.buf[:copy(d.buf, d.buf[start:])]
	return lines
}

// flush returns the trailing unterminated line at end of stream. An
// incomplete multi-byte UTF-8 sequence left in the buffer is a decode
// error: the stream ended mid-character.
func (d *lineDecoder) flush() (string, error) {
	if len(d.buf) == 0 {
		return "", nil
	}
	tail := d.buf
	d.buf = nil
	if !utf8.Valid(tail) {
		return "", &DecodeError{Reason: "UTF-8: unterminated multi-byte sequence at end of stream"}
	}
	return string(tail), nil
}

// buffered returns the number of bytes held for the next feed.
func (d *lineDecoder) buffered() int { return len(d.buf) }
