package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"reflect"
)

// ErrConversion is returned when an item cannot be converted to the type a
// target declares.
var ErrConversion = errors.New("unable to convert item")

// Stream is an ordered sequence of items. A non-nil error terminates it.
type Stream = iter.Seq2[any, error]

// Just returns a stream of the items.
func Just(items ...any) Stream {
	return func(yield func(any, error) bool) {
		for _, v := range items {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Empty returns a stream without items.
func Empty() Stream {
	return func(func(any, error) bool) {}
}

// Fail returns a stream that terminates with err.
func Fail(err error) Stream {
	return func(yield func(any, error) bool) {
		yield(nil, err)
	}
}

// Collect drains the stream into a slice. The first error aborts.
func Collect(s Stream) ([]any, error) {
	out := []any{}
	for v, err := range s {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// First returns the first item of the stream and stops pulling from it.
func First(s Stream) (any, bool, error) {
	for v, err := range s {
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
	return nil, false, nil
}

func typed[T any](in Stream) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for v, err := range in {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			t, err := convert[T](v)
			if !yield(t, err) || err != nil {
				return
			}
		}
	}
}

func untyped[T any](in iter.Seq2[T, error]) Stream {
	return func(yield func(any, error) bool) {
		for v, err := range in {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// convert asserts v to T and falls back on a JSON round trip, which covers
// form values decoded into maps or structs. Single valued form fields become
// scalars unless T keeps the values as lists.
func convert[T any](v any) (T, error) {
	var out T
	if v == nil {
		return out, nil
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	if form, ok := v.(url.Values); ok && !isValuesType(reflect.TypeFor[T]()) {
		v = flatten(form)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("%w %T to %T: %w", ErrConversion, v, out, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("%w %T to %T: %w", ErrConversion, v, out, err)
	}
	return out, nil
}

var stringsType = reflect.TypeFor[[]string]()

// isValuesType reports whether typ is a map holding every value of a field.
func isValuesType(typ reflect.Type) bool {
	return typ.Kind() == reflect.Map && typ.Key().Kind() == reflect.String && typ.Elem() == stringsType
}

func flatten(form url.Values) map[string]any {
	out := make(map[string]any, len(form))
	for k, vals := range form {
		switch len(vals) {
		case 0:
		case 1:
			out[k] = vals[0]
		default:
			out[k] = vals
		}
	}
	return out
}
