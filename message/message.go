// Package message provides the payload plus headers envelope that functions
// declaring message typed inputs or outputs receive and return.
package message

import (
	"fmt"
	"maps"

	"github.com/google/uuid"
)

// HeaderID is the header carrying the unique id of a message.
const HeaderID = "id"

// Headers maps a header name to a scalar string or a list of strings.
type Headers map[string]any

// Get returns the first string value of the header, or an empty string when
// the header is absent.
func (h Headers) Get(key string) string {
	switch v := h[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		if len(v) == 0 {
			return ""
		}
		return v[0]
	default:
		return fmt.Sprint(v)
	}
}

// Has reports whether the key is present.
func (h Headers) Has(key string) bool {
	_, ok := h[key]
	return ok
}

// ID returns the message id header.
func (h Headers) ID() string {
	return h.Get(HeaderID)
}

// Clone returns a shallow copy. A nil Headers clones to an empty map.
func (h Headers) Clone() Headers {
	out := make(Headers, len(h))
	maps.Copy(out, h)
	return out
}

// Message pairs a payload with its headers.
type Message[T any] struct {
	Payload T
	Headers Headers
}

// Untyped is the payload agnostic form the runtime moves between layers.
type Untyped = Message[any]

// New creates a message with a copy of the provided headers and a freshly
// generated id, replacing any id found in headers.
func New[T any](payload T, headers Headers) Message[T] {
	h := headers.Clone()
	h[HeaderID] = uuid.NewString()
	return Message[T]{Payload: payload, Headers: h}
}

// Untype erases the payload type.
func (m Message[T]) Untype() Untyped {
	return Untyped{Payload: m.Payload, Headers: m.Headers}
}

// Of returns the untyped form of v when v is a Message of any payload type.
func Of(v any) (Untyped, bool) {
	m, ok := v.(interface{ Untype() Untyped })
	if !ok {
		return Untyped{}, false
	}
	return m.Untype(), true
}
