package catalog

import (
	"context"
	"iter"
	"reflect"

	"github.com/dsyer/spring-cloud-function/message"
)

// Function creates a function invoked once per input item.
func Function[I, O any](name string, fn func(context.Context, I) (O, error)) *Target {
	return &Target{
		Name:   name,
		Kind:   KindFunction,
		Input:  Descriptor{Type: reflect.TypeFor[I]()},
		Output: Descriptor{Type: reflect.TypeFor[O]()},
		apply: func(ctx context.Context, in Stream) Stream {
			return func(yield func(any, error) bool) {
				for v, err := range typed[I](in) {
					if err != nil {
						yield(nil, err)
						return
					}
					out, err := fn(ctx, v)
					if err != nil {
						yield(nil, err)
						return
					}
					if !yield(out, nil) {
						return
					}
				}
			}
		},
	}
}

// OptionalFunction creates a function that may produce no value for an input
// item, reported by a false second return.
func OptionalFunction[I, O any](name string, fn func(context.Context, I) (O, bool, error)) *Target {
	return &Target{
		Name:   name,
		Kind:   KindFunction,
		Input:  Descriptor{Type: reflect.TypeFor[I]()},
		Output: Descriptor{Type: reflect.TypeFor[O](), Wrapper: WrapperOptional},
		apply: func(ctx context.Context, in Stream) Stream {
			return func(yield func(any, error) bool) {
				for v, err := range typed[I](in) {
					if err != nil {
						yield(nil, err)
						return
					}
					out, ok, err := fn(ctx, v)
					if err != nil {
						yield(nil, err)
						return
					}
					if !ok {
						continue
					}
					if !yield(out, nil) {
						return
					}
				}
			}
		},
	}
}

// FluxFunction creates a function from a stream of inputs to a stream of
// outputs.
func FluxFunction[I, O any](name string, fn func(context.Context, iter.Seq2[I, error]) iter.Seq2[O, error]) *Target {
	return &Target{
		Name:   name,
		Kind:   KindFunction,
		Input:  Descriptor{Type: reflect.TypeFor[I](), Wrapper: WrapperFlux},
		Output: Descriptor{Type: reflect.TypeFor[O](), Wrapper: WrapperFlux},
		apply: func(ctx context.Context, in Stream) Stream {
			return untyped(fn(ctx, typed[I](in)))
		},
	}
}

// ReduceFunction creates a function from a stream of inputs to a single output.
func ReduceFunction[I, O any](name string, fn func(context.Context, iter.Seq2[I, error]) (O, error)) *Target {
	return &Target{
		Name:   name,
		Kind:   KindFunction,
		Input:  Descriptor{Type: reflect.TypeFor[I](), Wrapper: WrapperFlux},
		Output: Descriptor{Type: reflect.TypeFor[O](), Wrapper: WrapperMono},
		apply: func(ctx context.Context, in Stream) Stream {
			return func(yield func(any, error) bool) {
				out, err := fn(ctx, typed[I](in))
				if err != nil {
					yield(nil, err)
					return
				}
				yield(out, nil)
			}
		},
	}
}

// MessageFunction creates a function that receives and returns messages. Its
// output items are message.Untyped.
func MessageFunction[I, O any](name string, fn func(context.Context, message.Message[I]) (message.Message[O], error)) *Target {
	return &Target{
		Name:   name,
		Kind:   KindFunction,
		Input:  Descriptor{Type: reflect.TypeFor[I](), Message: true},
		Output: Descriptor{Type: reflect.TypeFor[O](), Message: true},
		apply: func(ctx context.Context, in Stream) Stream {
			return func(yield func(any, error) bool) {
				for v, err := range in {
					if err != nil {
						yield(nil, err)
						return
					}
					m, err := toMessage[I](v)
					if err != nil {
						yield(nil, err)
						return
					}
					out, err := fn(ctx, m)
					if err != nil {
						yield(nil, err)
						return
					}
					if !yield(out.Untype(), nil) {
						return
					}
				}
			}
		},
	}
}

// Consumer creates a consumer invoked once per input item.
func Consumer[I any](name string, fn func(context.Context, I) error) *Target {
	return &Target{
		Name:  name,
		Kind:  KindConsumer,
		Input: Descriptor{Type: reflect.TypeFor[I]()},
		accept: func(ctx context.Context, in Stream) error {
			for v, err := range typed[I](in) {
				if err != nil {
					return err
				}
				if err := fn(ctx, v); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// MessageConsumer creates a consumer that receives messages.
func MessageConsumer[I any](name string, fn func(context.Context, message.Message[I]) error) *Target {
	return &Target{
		Name:  name,
		Kind:  KindConsumer,
		Input: Descriptor{Type: reflect.TypeFor[I](), Message: true},
		accept: func(ctx context.Context, in Stream) error {
			for v, err := range in {
				if err != nil {
					return err
				}
				m, err := toMessage[I](v)
				if err != nil {
					return err
				}
				if err := fn(ctx, m); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// Supplier creates a supplier producing a stream.
func Supplier[O any](name string, fn func(context.Context) iter.Seq2[O, error]) *Target {
	return &Target{
		Name:   name,
		Kind:   KindSupplier,
		Output: Descriptor{Type: reflect.TypeFor[O](), Wrapper: WrapperFlux},
		supply: func(ctx context.Context) Stream {
			return untyped(fn(ctx))
		},
	}
}

// ValueSupplier creates a supplier producing a single value.
func ValueSupplier[O any](name string, fn func(context.Context) (O, error)) *Target {
	return &Target{
		Name:   name,
		Kind:   KindSupplier,
		Output: Descriptor{Type: reflect.TypeFor[O]()},
		supply: func(ctx context.Context) Stream {
			return func(yield func(any, error) bool) {
				out, err := fn(ctx)
				if err != nil {
					yield(nil, err)
					return
				}
				yield(out, nil)
			}
		},
	}
}

// MessageSupplier creates a supplier producing a stream of messages. Its
// output items are message.Untyped.
func MessageSupplier[O any](name string, fn func(context.Context) iter.Seq2[message.Message[O], error]) *Target {
	return &Target{
		Name:   name,
		Kind:   KindSupplier,
		Output: Descriptor{Type: reflect.TypeFor[O](), Wrapper: WrapperFlux, Message: true},
		supply: func(ctx context.Context) Stream {
			return func(yield func(any, error) bool) {
				for m, err := range fn(ctx) {
					if err != nil {
						yield(nil, err)
						return
					}
					if !yield(m.Untype(), nil) {
						return
					}
				}
			}
		},
	}
}

// MessageValueSupplier creates a supplier producing a single message.
func MessageValueSupplier[O any](name string, fn func(context.Context) (message.Message[O], error)) *Target {
	return &Target{
		Name:   name,
		Kind:   KindSupplier,
		Output: Descriptor{Type: reflect.TypeFor[O](), Message: true},
		supply: func(ctx context.Context) Stream {
			return func(yield func(any, error) bool) {
				out, err := fn(ctx)
				if err != nil {
					yield(nil, err)
					return
				}
				yield(out.Untype(), nil)
			}
		},
	}
}

func toMessage[I any](v any) (message.Message[I], error) {
	switch m := v.(type) {
	case message.Message[I]:
		return m, nil
	case message.Untyped:
		p, err := convert[I](m.Payload)
		if err != nil {
			return message.Message[I]{}, err
		}
		return message.Message[I]{Payload: p, Headers: m.Headers}, nil
	default:
		p, err := convert[I](v)
		if err != nil {
			return message.Message[I]{}, err
		}
		return message.New(p, nil), nil
	}
}
