package fn

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dsyer/spring-cloud-function/catalog"
	"github.com/dsyer/spring-cloud-function/cloudevent"
	"github.com/dsyer/spring-cloud-function/message"
)

// Controller exposes the targets of a catalog over HTTP. The first path
// segment names the target.
type Controller struct {
	logger   *slog.Logger
	catalog  FunctionCatalog
	coercer  *Coercer
	provider *cloudevent.Provider
	debug    bool
}

// ControllerOpt configures a Controller.
type ControllerOpt func(*Controller)

// WithJSONMapper sets the mapper used to decode JSON bodies.
func WithJSONMapper(m JSONMapper) ControllerOpt {
	return func(c *Controller) {
		c.coercer.Mapper = m
	}
}

// WithStringConverter sets the converter used for scalar bodies and
// arguments.
func WithStringConverter(sc StringConverter) ControllerOpt {
	return func(c *Controller) {
		c.coercer.Converter = sc
	}
}

// WithProvider sets the provider of the Cloud Event attributes added to
// responses for Cloud Event requests.
func WithProvider(p *cloudevent.Provider) ControllerOpt {
	return func(c *Controller) {
		c.provider = p
	}
}

// WithDebug logs every item flowing in and out of a target.
func WithDebug(debug bool) ControllerOpt {
	return func(c *Controller) {
		c.debug = debug
	}
}

// NewController creates a controller serving the targets of cat.
func NewController(logger *slog.Logger, cat FunctionCatalog, opts ...ControllerOpt) *Controller {
	c := &Controller{
		logger:   logger,
		catalog:  cat,
		coercer:  NewCoercer(),
		provider: cloudevent.NewProvider(cloudevent.ProviderConfig{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ServeHTTP routes the request to its target and writes the result.
func (c *Controller) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		if r.Body == nil {
			return
		}
		if n, err := io.Copy(io.Discard, r.Body); err != nil {
			c.logger.Error("failed to drain request body", "err", err.Error(), "bytes_drained", n)
		}
		if err := r.Body.Close(); err != nil {
			c.logger.Error("failed to close request body", "err", err.Error())
		}
	}()

	inv, err := routeReq(c.catalog, r)
	if err != nil {
		code := http.StatusNotFound
		if errors.Is(err, ErrMethodNotAllowed) {
			code = http.StatusMethodNotAllowed
		}
		writeErrResp(c.logger, w, APIError{Code: code, Message: err.Error()})
		recordInvocation(nil, strconv.Itoa(code), start)
		return
	}

	var code int
	if r.Method == http.MethodPost {
		code = c.post(w, r, inv)
	} else {
		code = c.get(w, r, inv)
	}
	recordInvocation(inv.Target, strconv.Itoa(code), start)
}

func (c *Controller) post(w http.ResponseWriter, r *http.Request, inv Invocation) int {
	if inv.Target == nil {
		return c.fail(w, APIError{Code: http.StatusBadRequest, Message: ErrNoSuchFunction.Error()})
	}

	var body string
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return c.fail(w, APIError{Code: http.StatusBadRequest, Message: "failed to parse form: " + err.Error()})
		}
		inv.Form = r.Form
	} else {
		b, err := readBody(r)
		if err != nil {
			return c.fail(w, APIError{Code: http.StatusBadRequest, Message: err.Error()})
		}
		body = b
	}

	if cloudevent.IsStructured(r.Header.Get("Content-Type")) {
		h, data, err := cloudevent.FromStructured([]byte(body))
		if err != nil {
			return c.fail(w, APIError{Code: http.StatusBadRequest, Message: err.Error()})
		}
		for k, v := range h {
			inv.Headers[k] = v
		}
		if ct := h.Get(cloudevent.CEDataContentType); ct != "" {
			inv.Headers["content-type"] = ct
		}
		body = string(data)
	}

	items, single, err := c.coercer.Coerce(inv.Target, body, inv.Form)
	if err != nil {
		return c.fail(w, APIError{Code: http.StatusBadRequest, Message: err.Error()})
	}
	inv.Single = single

	return c.invoke(r.Context(), w, inv, items)
}

func (c *Controller) get(w http.ResponseWriter, r *http.Request, inv Invocation) int {
	if inv.Target == nil {
		return c.fail(w, APIError{Code: http.StatusBadRequest, Message: ErrNoSuchFunction.Error()})
	}

	if inv.Target.Kind == catalog.KindSupplier {
		out := c.trace(inv.Target, "output", inv.Target.Supply(r.Context()))
		return c.respond(w, inv, out, nil)
	}

	arg, err := c.coercer.Argument(inv.Target, inv.Argument)
	if err != nil {
		return c.fail(w, APIError{Code: http.StatusBadRequest, Message: err.Error()})
	}
	return c.invoke(r.Context(), w, inv, []any{arg})
}

// invoke hands the coerced items to a function or consumer.
func (c *Controller) invoke(ctx context.Context, w http.ResponseWriter, inv Invocation, items []any) int {
	t := inv.Target

	var ceIn *message.Untyped
	if t.IsMessage() {
		h := cloudevent.Canonicalize(inv.Headers)
		for i, v := range items {
			m := message.New(v, h)
			items[i] = m
			if cloudevent.IsBinary(h) {
				ceIn = &m
			}
		}
	}
	in := c.trace(t, "input", catalog.Just(items...))

	if t.Kind == catalog.KindConsumer {
		go func() {
			if err := t.Accept(context.WithoutCancel(ctx), in); err != nil {
				c.logger.Error("consumer failed", "consumer", t.Name, "err", err)
			}
		}()
		w.WriteHeader(http.StatusAccepted)
		return http.StatusAccepted
	}

	out := c.trace(t, "output", t.Apply(ctx, in))
	return c.respond(w, inv, out, ceIn)
}

// respond writes the output of a target as a single value, a list or an
// event stream.
func (c *Controller) respond(w http.ResponseWriter, inv Invocation, out catalog.Stream, ceIn *message.Untyped) int {
	if inv.Streaming {
		return c.stream(w, out, ceIn)
	}

	var (
		items   = []any{}
		headers = message.Headers{}
	)
	for v, err := range out {
		if err != nil {
			return c.fail(w, invocationErr(err))
		}
		items = append(items, c.unwrap(v, headers, ceIn))
	}

	t := inv.Target
	one := t.IsOutputSingle() && (inv.Single || inv.Getter || t.IsInputMultiple())

	var result any = items
	if one {
		if len(items) == 0 {
			writeHeaders(w, headers)
			w.WriteHeader(http.StatusOK)
			return http.StatusOK
		}
		result = items[0]
	}

	body, contentType, err := encodeBody(result)
	if err != nil {
		return c.fail(w, APIError{Code: http.StatusInternalServerError, Message: err.Error()})
	}

	writeHeaders(w, headers)
	if contentType != "" && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		c.logger.Error("failed to write response", "err", err)
	}
	return http.StatusOK
}

// unwrap returns the payload of a message item and collects its headers.
// Later messages overwrite the headers of earlier ones.
func (c *Controller) unwrap(v any, headers message.Headers, ceIn *message.Untyped) any {
	m, ok := message.Of(v)
	if !ok {
		return v
	}

	for k, hv := range m.Headers {
		headers[k] = hv
	}
	if ceIn != nil {
		for k, hv := range c.provider.GenerateDefaultCloudEventHeaders(*ceIn, m.Payload) {
			if !strings.HasPrefix(k, cloudevent.AttrPrefix) {
				continue
			}
			if _, ok := headers[k]; !ok {
				headers[k] = hv
			}
		}
	}
	return m.Payload
}

func (c *Controller) fail(w http.ResponseWriter, apiErr APIError) int {
	c.logger.Error("invocation failed", "code", apiErr.Code, "err", apiErr.Message)
	writeErrResp(c.logger, w, apiErr)
	return apiErr.Code
}

// trace logs each item of s when debugging.
func (c *Controller) trace(t *catalog.Target, direction string, s catalog.Stream) catalog.Stream {
	if !c.debug {
		return s
	}
	return func(yield func(any, error) bool) {
		for v, err := range s {
			if err != nil {
				c.logger.Info("stream error", "target", t.Name, "direction", direction, "err", err)
			} else {
				c.logger.Info("stream item", "target", t.Name, "direction", direction, "item", v)
			}
			if !yield(v, err) {
				return
			}
		}
	}
}

func invocationErr(err error) APIError {
	if errors.Is(err, catalog.ErrConversion) {
		return APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	return APIError{Code: http.StatusInternalServerError, Message: err.Error()}
}

// writeHeaders copies message headers into the response. Cloud Event
// attributes take their "ce-" HTTP form.
func writeHeaders(w http.ResponseWriter, headers message.Headers) {
	for name, vals := range message.ToHTTP(cloudevent.HTTP(headers)) {
		w.Header().Del(name)
		for _, v := range vals {
			w.Header().Add(name, v)
		}
	}
}
