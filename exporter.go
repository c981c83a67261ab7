package fn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dsyer/spring-cloud-function/catalog"
	"github.com/dsyer/spring-cloud-function/cloudevent"
	"github.com/dsyer/spring-cloud-function/message"
)

// headerDestination names the message header that overrides the destination
// of an exported item.
const headerDestination = "destination"

// ExporterConfig configures the forwarding of supplier output to a sink.
type ExporterConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	AutoStartup bool `mapstructure:"auto_startup"`
	Debug       bool `mapstructure:"debug"`

	// SupplierNames limits the export to the named suppliers. All suppliers
	// are exported when empty.
	SupplierNames []string `mapstructure:"supplier_names"`

	// SinkURL is the URL items are posted to. It may contain {{destination}}.
	SinkURL string `mapstructure:"sink_url"`
	// SinkName, when set, is the destination of every item.
	SinkName    string            `mapstructure:"sink_name"`
	ContentType string            `mapstructure:"content_type"`
	Headers     map[string]string `mapstructure:"headers"`

	// NATSURL switches the sink to NATS, publishing to the destination as
	// subject.
	NATSURL string `mapstructure:"nats_url"`
}

// DestinationResolver names the destination of an item from the named
// supplier.
type DestinationResolver func(supplier string, value any) string

// ExporterOpt configures an Exporter.
type ExporterOpt func(*Exporter)

// WithDestinationResolver replaces the default destination resolution.
func WithDestinationResolver(r DestinationResolver) ExporterOpt {
	return func(e *Exporter) {
		e.resolve = r
	}
}

// Exporter pulls every configured supplier and forwards its items to a sink.
type Exporter struct {
	logger  *slog.Logger
	catalog FunctionCatalog
	sink    Sink
	cfg     ExporterConfig
	resolve DestinationResolver

	running atomic.Bool
	ok      atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewExporter creates an exporter. It is healthy until a supplier or the sink
// fails.
func NewExporter(logger *slog.Logger, cat FunctionCatalog, sink Sink, cfg ExporterConfig, opts ...ExporterOpt) *Exporter {
	e := &Exporter{
		logger:  logger,
		catalog: cat,
		sink:    sink,
		cfg:     cfg,
	}
	e.resolve = e.defaultDestination
	e.ok.Store(true)
	for _, o := range opts {
		o(e)
	}
	return e
}

// NewSink creates the sink the config asks for.
func NewSink(cfg ExporterConfig) (Sink, error) {
	if cfg.NATSURL != "" {
		return NewNATSSink(cfg.NATSURL, cfg.SinkName)
	}
	if cfg.SinkURL == "" {
		return nil, errors.New("no sink url provided for export")
	}
	return NewHTTPSink(nil, cfg.SinkURL), nil
}

// Start subscribes to the suppliers. It returns immediately, forwarding runs
// until the suppliers complete, one of them fails, Stop is called or ctx is
// done.
func (e *Exporter) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running.Load() {
		return
	}
	e.running.Store(true)
	e.ok.Store(true)
	e.logger.Info("starting supplier exporter")

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	done := make(chan struct{})
	e.done = done

	names := e.cfg.SupplierNames
	if len(names) == 0 {
		names = e.catalog.Names(catalog.KindSupplier)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		t, ok := e.catalog.Lookup(catalog.KindSupplier, name)
		if !ok {
			e.logger.Warn("no such supplier", "supplier", name)
			continue
		}
		g.Go(func() error {
			return e.forward(gctx, t)
		})
	}

	go func() {
		defer close(done)
		defer cancel()

		err := g.Wait()
		if err != nil && !errors.Is(err, context.Canceled) {
			e.ok.Store(false)
			e.logger.Error("supplier export failed", "err", err)
		}

		e.mu.Lock()
		if e.done == done {
			e.running.Store(false)
		}
		e.mu.Unlock()
	}()
}

// Stop cancels the forwarding. Items already handed to the sink are not
// recalled.
func (e *Exporter) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel == nil {
		return
	}
	e.logger.Info("stopping supplier exporter")
	e.cancel()
	e.running.Store(false)
}

// Wait blocks until the forwarding started last has finished.
func (e *Exporter) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()

	if done != nil {
		<-done
	}
}

// IsRunning reports whether the exporter is forwarding.
func (e *Exporter) IsRunning() bool {
	return e.running.Load()
}

// IsOK reports whether the exporter has forwarded without error.
func (e *Exporter) IsOK() bool {
	return e.ok.Load()
}

func (e *Exporter) forward(ctx context.Context, t *catalog.Target) error {
	for v, err := range t.Supply(ctx) {
		if err != nil {
			return fmt.Errorf("supplier %q failed: %w", t.Name, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		exp, err := e.export(t.Name, v)
		if err != nil {
			exportedTotal.WithLabelValues(t.Name, "error").Inc()
			return err
		}
		if e.cfg.Debug {
			e.logger.Info("exporting item", "supplier", t.Name, "destination", exp.Destination)
		}

		if err := e.sink.Send(ctx, exp); err != nil {
			exportedTotal.WithLabelValues(t.Name, "error").Inc()
			return err
		}
		exportedTotal.WithLabelValues(t.Name, "ok").Inc()
	}
	return nil
}

func (e *Exporter) export(supplier string, v any) (Export, error) {
	exp := Export{
		Destination: e.resolve(supplier, v),
		Header:      make(http.Header),
	}
	for k, hv := range e.cfg.Headers {
		exp.Header.Set(k, hv)
	}

	payload := v
	if m, ok := message.Of(v); ok {
		for name, vals := range message.ToHTTP(cloudevent.HTTP(m.Headers)) {
			exp.Header.Del(name)
			for _, hv := range vals {
				exp.Header.Add(name, hv)
			}
		}
		payload = m.Payload
	}

	body, contentType, err := encodeBody(payload)
	if err != nil {
		return exp, fmt.Errorf("failed to encode export of supplier %q: %w", supplier, err)
	}
	exp.Body = body
	if exp.Header.Get("Content-Type") == "" {
		ct := e.cfg.ContentType
		if ct == "" {
			ct = contentType
		}
		if ct != "" {
			exp.Header.Set("Content-Type", ct)
		}
	}
	return exp, nil
}

func (e *Exporter) defaultDestination(supplier string, v any) string {
	if m, ok := message.Of(v); ok {
		if d := m.Headers.Get(headerDestination); d != "" {
			return d
		}
	}
	if e.cfg.SinkName != "" {
		return e.cfg.SinkName
	}
	return supplier
}
