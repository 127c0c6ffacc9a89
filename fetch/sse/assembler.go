package sse

import (
	"strconv"
	"strings"
)

// assembler applies the SSE wire grammar to logical lines, accumulating an
// in-progress event until its terminating blank line.
type assembler struct {
	id        string
	eventType string
	data      []string
	retry     int
	hasData   bool
}

func newAssembler() *assembler {
	return &assembler{retry: -1}
}

// feed processes one line. It returns a finished event when the line is the
// blank terminator of an event that carries data; events without a data
// field are discarded per the wire grammar.
func (a *assembler) feed(line string) *Event {
	// Blank line dispatches the in-progress event.
	if line == "" {
		if !a.hasData {
			a.reset()
			return nil
		}
		ev := &Event{
			ID:    a.id,
			Type:  a.eventType,
			Data:  strings.Join(a.data, "\n"),
			Retry: a.retry,
		}
		a.reset()
		return ev
	}

	// Comment lines start with ':'.
	if strings.HasPrefix(line, ":") {
		return nil
	}

	field, value := parseField(line)
	switch field {
	case "data":
		a.data = append(a.data, value)
		a.hasData = true
	case "event":
		a.eventType = value
	case "id":
		a.id = value
	case "retry":
		// Milliseconds; anything non-numeric is ignored.
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			a.retry = ms
		}
	default:
		// Unknown fields are ignored.
	}
	return nil
}

// reset discards the in-progress event.
func (a *assembler) reset() {
	a.id = ""
	a.eventType = ""
	a.data = nil
	a.retry = -1
	a.hasData = false
}

// parseField splits an SSE line into field and value. Without a colon the
// whole line is the field name. A single space after the colon is stripped,
// so "field: value" and "field:value" are equivalent.
func parseField(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	field = line[:idx]
	value = line[idx+1:]
	if value != "" && value[0] == ' ' {
		value = value[1:]
	}
	return field, value
}
