package fn

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dsyer/spring-cloud-function/catalog"
	"github.com/dsyer/spring-cloud-function/message"
)

var (
	// ErrNoSuchFunction is returned when no target is registered for a request.
	ErrNoSuchFunction = errors.New("no such function")

	// ErrMethodNotAllowed is returned for methods other than GET and POST.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// FunctionCatalog looks up targets by kind and name.
type FunctionCatalog interface {
	Lookup(kind catalog.Kind, name string) (*catalog.Target, bool)
	Names(kind catalog.Kind) []string
}

// Route resolves the target of a request. The first path segment names the
// target. A POST goes to a function, else a consumer. A GET with more path
// segments goes to a function with the remainder as its argument, a GET of
// the name alone goes to a supplier, else a function with an empty argument.
// For requests, the "arg" query parameter stands in for a missing argument.
func Route(cat FunctionCatalog, method, path string) (Invocation, error) {
	name, rest, _ := strings.Cut(strings.Trim(path, "/"), "/")
	if name == "" {
		return Invocation{}, ErrNoSuchFunction
	}

	switch method {
	case http.MethodPost:
		if t, ok := cat.Lookup(catalog.KindFunction, name); ok {
			return Invocation{Target: t}, nil
		}
		if t, ok := cat.Lookup(catalog.KindConsumer, name); ok {
			return Invocation{Target: t}, nil
		}
	case http.MethodGet:
		if rest == "" {
			if t, ok := cat.Lookup(catalog.KindSupplier, name); ok {
				return Invocation{Target: t, Getter: true}, nil
			}
		}
		if t, ok := cat.Lookup(catalog.KindFunction, name); ok {
			return Invocation{Target: t, Argument: rest, Getter: true, Single: true}, nil
		}
	default:
		return Invocation{}, ErrMethodNotAllowed
	}

	return Invocation{}, ErrNoSuchFunction
}

func routeReq(cat FunctionCatalog, r *http.Request) (Invocation, error) {
	inv, err := Route(cat, r.Method, r.URL.Path)
	if err != nil {
		return inv, err
	}
	inv.Headers = message.FromHTTP(r.Header)
	inv.Streaming = acceptsEventStream(r)
	inv.Form = r.URL.Query()
	if inv.Getter && inv.Argument == "" && inv.Target.Kind == catalog.KindFunction {
		inv.Argument = inv.Form.Get("arg")
		if inv.Argument != "" {
			inv.Form.Del("arg")
		}
	}
	return inv, nil
}
