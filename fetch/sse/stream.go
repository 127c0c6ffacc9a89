package sse

import (
	"encoding/json"
	"io"
)

// ContentType is the media type SSE responses must carry.
const ContentType = "text/event-stream"

// Event is a single server-sent event. It is immutable once returned.
type Event struct {
	// ID is the event ID (from "id:" line).
	ID string
	// Type is the event type (from "event:" line). Empty for data-only events.
	Type string
	// Data is the event payload. Repeated "data:" lines are joined with newlines.
	Data string
	// Retry is the reconnection delay in milliseconds, -1 when the event
	// carried no valid "retry:" line.
	Retry int
}

// JSON decodes the event data as JSON into v. A failure is reported as a
// *DecodeError scoped to this event; it does not affect the stream.
func (e *Event) JSON(v any) error {
	if err := json.Unmarshal([]byte(e.Data), v); err != nil {
		return &DecodeError{Reason: "JSON event data", Err: err}
	}
	return nil
}

// TerminateFunc decides whether an event is the logical end of the stream.
type TerminateFunc func(*Event) bool

// Option configures a Stream.
type Option func(*Stream)

// WithTerminator installs a termination predicate. When it returns true the
// event is still yielded, then the stream ends and the reader is released.
// This emulates end-of-stream for backends that never close the connection
// (e.g. a literal "[DONE]" data sentinel).
func WithTerminator(fn TerminateFunc) Option {
	return func(s *Stream) { s.terminate = fn }
}

// WithMaxLineSize caps the bytes buffered for a single logical line.
// Zero means no limit.
func WithMaxLineSize(n int) Option {
	return func(s *Stream) { s.maxLineSize = n }
}

// Stream is a single-pass, forward-only sequence of server-sent events.
// It is not restartable and not safe for concurrent use.
type Stream struct {
	body        io.ReadCloser
	dec         lineDecoder
	asm         *assembler
	lines       []string
	readBuf     []byte
	terminate   TerminateFunc
	maxLineSize int

	eof  bool
	done bool
	err  error
}

// NewStream creates a Stream over a response body.
func NewStream(body io.ReadCloser, opts ...Option) *Stream {
	s := &Stream{
		body:    body,
		asm:     newAssembler(),
		readBuf: make([]byte, 4096),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns the next event. It returns io.EOF when the stream ends,
// either because the source closed or because the termination predicate
// matched an earlier event. Any other error is terminal: subsequent calls
// keep returning it.
func (s *Stream) Next() (*Event, error) {
	if s.done {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}

	for {
		// Drain decoded lines before touching the reader again.
		for len(s.lines) > 0 {
			line := s.lines[0]
			s.lines = s.lines[1:]
			ev := s.asm.feed(line)
			if ev == nil {
				continue
			}
			if s.terminate != nil && s.terminate(ev) {
				s.finish(nil)
			}
			return ev, nil
		}

		if s.eof {
			// A trailing event without its blank-line terminator was
			// never dispatched and is discarded here.
			s.finish(nil)
			return nil, io.EOF
		}

		n, err := s.body.Read(s.readBuf)
		if n > 0 {
			s.lines = append(s.lines, s.dec.feed(s.readBuf[:n])...)
			if s.maxLineSize > 0 && s.dec.buffered() > s.maxLineSize {
				derr := &DecodeError{Reason: "line exceeds maximum size"}
				s.finish(derr)
				return nil, derr
			}
		}
		if err != nil {
			if err == io.EOF {
				if _, derr := s.dec.flush(); derr != nil {
					s.finish(derr)
					return nil, derr
				}
				s.eof = true
				continue
			}
			s.finish(err)
			return nil, err
		}
	}
}

// Close releases the underlying reader. Safe to call more than once.
func (s *Stream) Close() error {
	if s.done {
		return nil
	}
	s.finish(nil)
	return nil
}

// finish marks the stream terminated and releases the reader.
func (s *Stream) finish(err error) {
	s.done = true
	s.err = err
	s.lines = nil
	if s.body != nil {
		_ = s.body.Close()
		s.body = nil
	}
}
