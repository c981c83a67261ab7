package fn

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/valyala/bytebufferpool"

	"github.com/dsyer/spring-cloud-function/catalog"
	"github.com/dsyer/spring-cloud-function/message"
)

// stream writes the output as server sent events, flushing after each. The
// headers of the first message item become the response headers. An error
// before the first item is reported as a regular error response, after it
// the stream is cut short.
func (c *Controller) stream(w http.ResponseWriter, out catalog.Stream, ceIn *message.Untyped) int {
	flusher, _ := w.(http.Flusher)

	started := false
	begin := func(headers message.Headers) {
		writeHeaders(w, headers)
		w.Header().Set("Content-Type", contentTypeEventStream)
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		started = true
	}

	for v, err := range out {
		if err != nil {
			if !started {
				return c.fail(w, invocationErr(err))
			}
			c.logger.Error("event stream aborted", "err", err)
			return http.StatusOK
		}

		headers := message.Headers{}
		v = c.unwrap(v, headers, ceIn)
		if !started {
			begin(headers)
		}

		if err := writeEvent(w, v); err != nil {
			c.logger.Error("failed to write event", "err", err)
			return http.StatusOK
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if !started {
		begin(nil)
	}
	return http.StatusOK
}

// writeEvent writes v as one event. Each line of the encoded value gets its
// own "data:" field.
func writeEvent(w io.Writer, v any) error {
	data, _, err := encodeBody(v)
	if err != nil {
		return err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for _, line := range bytes.Split(data, []byte("\n")) {
		buf.WriteString("data:")
		buf.Write(bytes.TrimSuffix(line, []byte("\r")))
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')

	if _, err := w.Write(buf.B); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}
