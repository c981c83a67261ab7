package fn

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/dsyer/spring-cloud-function/catalog"
)

// ErrCoercion is returned when a request body cannot be turned into the input
// a target declares.
var ErrCoercion = errors.New("unable to coerce request input")

// JSONMapper decodes JSON documents into values of a runtime type.
type JSONMapper interface {
	// ToList decodes a JSON array into one value of elem per element.
	ToList(body string, elem reflect.Type) ([]any, error)
	// ToSingle decodes a JSON document into a value of typ.
	ToSingle(body string, typ reflect.Type) (any, error)
}

// StringConverter converts a scalar string into the input type of a target.
type StringConverter interface {
	Convert(t *catalog.Target, value string) (any, error)
}

// Coercer turns a raw request body into the input items of a target.
type Coercer struct {
	Mapper    JSONMapper
	Converter StringConverter
}

// NewCoercer creates a coercer using the JSON and string conversions of this
// package.
func NewCoercer() *Coercer {
	return &Coercer{Mapper: jsonMapper{}, Converter: stringConverter{}}
}

// Coerce determines the input items of t from a request body. A blank body
// falls back on the form values, sent as a single item, or no items at all.
// A JSON array yields one item per element. Anything else yields one item and
// reports single as true.
//
// A body starting with a double quote has its first and last characters
// removed. Escape sequences are not decoded.
func (c *Coercer) Coerce(t *catalog.Target, body string, form url.Values) (items []any, single bool, err error) {
	body = strings.TrimSpace(body)
	if body == "" {
		if len(form) > 0 {
			return []any{form}, false, nil
		}
		return []any{}, false, nil
	}

	var typ reflect.Type
	if t != nil {
		typ = t.Input.Type
	}

	var input any
	switch {
	case strings.HasPrefix(body, "[") && !isCollectionType(typ):
		list, err := c.Mapper.ToList(body, typ)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %w", ErrCoercion, err)
		}
		return list, false, nil
	case strings.HasPrefix(body, "[") || strings.HasPrefix(body, "{"):
		input, err = c.Mapper.ToSingle(body, typ)
	case strings.HasPrefix(body, `"`):
		input = unquote(body)
	default:
		if t == nil {
			input = body
			break
		}
		input, err = c.Converter.Convert(t, body)
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrCoercion, err)
	}
	return []any{input}, true, nil
}

// Argument converts the scalar argument of a GET call into the input of t.
// An empty argument is converted like any other, so a target that cannot take
// one fails with ErrCoercion.
func (c *Coercer) Argument(t *catalog.Target, arg string) (any, error) {
	v, err := c.Converter.Convert(t, arg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCoercion, err)
	}
	return v, nil
}

func unquote(s string) string {
	if len(s) < 2 {
		return ""
	}
	return s[1 : len(s)-1]
}

// isCollectionType reports whether a JSON array should decode into one value
// of typ rather than into one value per element.
func isCollectionType(typ reflect.Type) bool {
	if typ == nil {
		return false
	}
	k := typ.Kind()
	return (k == reflect.Slice && typ.Elem().Kind() != reflect.Uint8) || k == reflect.Array
}

type jsonMapper struct{}

func (m jsonMapper) ToList(body string, elem reflect.Type) ([]any, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json array: %w", err)
	}

	out := make([]any, 0, len(raw))
	for i, r := range raw {
		v, err := m.ToSingle(string(r), elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (jsonMapper) ToSingle(body string, typ reflect.Type) (any, error) {
	if typ == nil {
		var v any
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal json: %w", err)
		}
		return v, nil
	}

	ptr := reflect.New(typ)
	if err := json.Unmarshal([]byte(body), ptr.Interface()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json into %s: %w", typ, err)
	}
	return ptr.Elem().Interface(), nil
}

type stringConverter struct{}

func (stringConverter) Convert(t *catalog.Target, value string) (any, error) {
	typ := t.Input.Type
	if typ == nil || typ.Kind() == reflect.Interface {
		return value, nil
	}

	out := reflect.New(typ).Elem()
	switch typ.Kind() {
	case reflect.String:
		out.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, typ.Bits())
		if err != nil {
			return nil, err
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, typ.Bits())
		if err != nil {
			return nil, err
		}
		out.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, typ.Bits())
		if err != nil {
			return nil, err
		}
		out.SetFloat(f)
	case reflect.Slice:
		if typ.Elem().Kind() != reflect.Uint8 {
			return jsonMapper{}.ToSingle(value, typ)
		}
		out.SetBytes([]byte(value))
	default:
		return jsonMapper{}.ToSingle(value, typ)
	}
	return out.Interface(), nil
}
