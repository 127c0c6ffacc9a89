// Package sse parses Server-Sent Events from a byte stream.
//
// The parser is split into two layers: a line decoder that turns
// arbitrarily chunked bytes into logical lines (safe across chunk
// boundaries, including mid-multibyte and mid-CRLF splits), and an event
// assembler that applies the SSE wire grammar to those lines. Stream ties
// both to an io.ReadCloser and exposes a single-pass, pull-based sequence
// of events.
//
//	stream := sse.NewStream(resp.Body, sse.WithTerminator(func(ev *sse.Event) bool {
//	    return ev.Data == "[DONE]"
//	}))
//	defer stream.Close()
//	for {
//	    ev, err := stream.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
package sse
