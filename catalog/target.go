// Package catalog holds the functions, consumers and suppliers a runtime can
// invoke. Each target records, at registration, the shape of what it takes and
// returns so callers never need to inspect it at runtime.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// ErrWrongKind is returned when a target is invoked as a kind it is not.
var ErrWrongKind = errors.New("target invoked as the wrong kind")

// Kind distinguishes the three shapes of targets.
type Kind int

const (
	// KindFunction maps input items to output items.
	KindFunction Kind = iota + 1
	// KindConsumer takes input items and produces nothing.
	KindConsumer
	// KindSupplier produces items without input.
	KindSupplier
)

// String returns the lower case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindConsumer:
		return "consumer"
	case KindSupplier:
		return "supplier"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Wrapper describes how values are delivered to or returned from a target.
type Wrapper int

const (
	// WrapperNone is a plain value per invocation.
	WrapperNone Wrapper = iota
	// WrapperOptional is at most one value per invocation.
	WrapperOptional
	// WrapperMono is a single value produced from the whole input stream.
	WrapperMono
	// WrapperFlux is a stream of values.
	WrapperFlux
)

// Descriptor describes one side of a target.
type Descriptor struct {
	// Type is the payload type, the element type for streams and messages.
	Type    reflect.Type
	Wrapper Wrapper
	// Message is set when the payload is carried in a message.Message.
	Message bool
}

// Target is a registered function, consumer or supplier.
type Target struct {
	Name   string
	Kind   Kind
	Input  Descriptor
	Output Descriptor

	apply  func(context.Context, Stream) Stream
	accept func(context.Context, Stream) error
	supply func(context.Context) Stream
}

// Apply invokes a function with the input stream.
func (t *Target) Apply(ctx context.Context, in Stream) Stream {
	if t.apply == nil {
		return Fail(fmt.Errorf("%w: %s %q applied as function", ErrWrongKind, t.Kind, t.Name))
	}
	return t.apply(ctx, in)
}

// Accept feeds the input stream to a consumer.
func (t *Target) Accept(ctx context.Context, in Stream) error {
	if t.accept == nil {
		return fmt.Errorf("%w: %s %q accepted as consumer", ErrWrongKind, t.Kind, t.Name)
	}
	return t.accept(ctx, in)
}

// Supply obtains the stream of a supplier.
func (t *Target) Supply(ctx context.Context) Stream {
	if t.supply == nil {
		return Fail(fmt.Errorf("%w: %s %q supplied as supplier", ErrWrongKind, t.Kind, t.Name))
	}
	return t.supply(ctx)
}

// IsMessage reports whether the target takes its input in messages.
func (t *Target) IsMessage() bool {
	return t.Input.Message
}

// IsMessageOutput reports whether the target returns messages.
func (t *Target) IsMessageOutput() bool {
	return t.Output.Message
}

// IsInputMultiple reports whether the target takes many values at once,
// either as a slice or as a stream.
func (t *Target) IsInputMultiple() bool {
	return isCollection(t.Input.Type) || t.Input.Wrapper == WrapperFlux
}

// IsOutputSingle reports whether the target produces at most one value per
// invocation.
func (t *Target) IsOutputSingle() bool {
	if isIteration(t.Output.Type) {
		return false
	}
	switch t.Output.Wrapper {
	case WrapperNone, WrapperOptional, WrapperMono:
		return true
	default:
		return false
	}
}

func isCollection(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Slice:
		return t.Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	default:
		return false
	}
}

func isIteration(t reflect.Type) bool {
	if t == nil {
		return false
	}
	return t.Kind() == reflect.Chan || t.Kind() == reflect.Func
}
