package types

import (
	"fmt"
	"strings"
)

// Frame is one message as it travels through a channel: an ordered,
// fixed-arity sequence of values. Channels forward frames opaquely and
// never interpret or validate the values. A frame is immutable once sent;
// callers must not modify it after handing it off.
type Frame []any

// NewFrame builds a frame from the given values
func NewFrame(values ...any) Frame {
	return Frame(values)
}

// Arity returns the number of values in the frame
func (f Frame) Arity() int {
	return len(f)
}

// Values returns the frame's values as a slice
func (f Frame) Values() []any {
	return []any(f)
}

// String returns a string representation of the frame
func (f Frame) String() string {
	parts := make([]string, len(f))
	for i, v := range f {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return "Frame[" + strings.Join(parts, ", ") + "]"
}
