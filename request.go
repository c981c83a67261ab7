package fn

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/valyala/bytebufferpool"

	"github.com/dsyer/spring-cloud-function/catalog"
	"github.com/dsyer/spring-cloud-function/message"
)

const (
	mb = 1 << 20

	maxBodyBytes = 5 * mb

	contentTypeForm        = "application/x-www-form-urlencoded"
	contentTypeEventStream = "text/event-stream"
)

// Invocation carries everything known about a single call from routing to
// the response. It lives for one request.
type Invocation struct {
	Target *catalog.Target

	// Argument is the scalar argument of a GET function call.
	Argument string

	// Single records that a single value was sent, as opposed to a list.
	Single bool
	// Getter marks a GET request.
	Getter bool
	// Streaming requests an event stream response.
	Streaming bool

	// Headers are the inbound HTTP headers as message headers.
	Headers message.Headers
	// Form holds query parameters merged with a url-encoded body.
	Form url.Values
}

func readBody(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := buf.ReadFrom(io.LimitReader(r.Body, maxBodyBytes)); err != nil {
		return "", fmt.Errorf("failed to read request body: %w", err)
	}
	// String copies, so the buffer can go back to the pool.
	return buf.String(), nil
}

func isForm(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), contentTypeForm)
}

func acceptsEventStream(r *http.Request) bool {
	for _, v := range r.Header.Values("Accept") {
		if strings.Contains(v, contentTypeEventStream) {
			return true
		}
	}
	return false
}
