package message

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
)

// ignored headers never cross between HTTP and message headers. The id belongs
// to a single message and the length to a single body.
var ignored = map[string]bool{
	HeaderID:         true,
	"content-length": true,
}

// FromHTTP converts HTTP headers to message headers. Names are lower-cased, a
// single value is stored as a string and multiple values as a []string.
func FromHTTP(h http.Header) Headers {
	out := make(Headers, len(h))
	for name, vals := range h {
		name = strings.ToLower(name)
		if ignored[name] {
			continue
		}
		switch len(vals) {
		case 0:
		case 1:
			out[name] = vals[0]
		default:
			out[name] = append([]string(nil), vals...)
		}
	}
	return out
}

// ToHTTP converts message headers to HTTP headers. Names are lower-cased and
// written directly into the map so they are not canonicalized. A list value
// is written as repeated values of the same header. Keys that only differ in
// case replace each other in sorted key order, so the last one wins.
func ToHTTP(h Headers) http.Header {
	out := make(http.Header, len(h))
	for _, key := range slices.Sorted(maps.Keys(h)) {
		v := h[key]
		name := strings.ToLower(key)
		if ignored[name] {
			continue
		}
		switch vv := v.(type) {
		case string:
			out[name] = []string{vv}
		case []string:
			out[name] = append([]string(nil), vv...)
		case nil:
		default:
			out[name] = []string{fmt.Sprint(vv)}
		}
	}
	return out
}
