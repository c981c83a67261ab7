package fn

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nats-io/nats.go"
)

// version marks the version of the runtime, sent in the user agent of the
// HTTP sink. This should be provided via an LDFlag on build.
var version = "development"

const destinationPlaceholder = "{{destination}}"

// Export is a single supplier item on its way to a sink.
type Export struct {
	Destination string
	Header      http.Header
	Body        []byte
}

// Sink receives the items forwarded by an Exporter.
type Sink interface {
	Send(ctx context.Context, e Export) error
	Close() error
}

// HTTPSink posts every export to a URL. The URL may contain {{destination}},
// which is replaced by the destination of the export.
type HTTPSink struct {
	client *http.Client
	url    string
}

// NewHTTPSink creates a sink posting to url. A nil client is replaced by
// http.DefaultClient.
func NewHTTPSink(client *http.Client, url string) *HTTPSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSink{client: client, url: url}
}

// Send posts the export and fails on any status above 299.
func (s *HTTPSink) Send(ctx context.Context, e Export) error {
	u := strings.ReplaceAll(s.url, destinationPlaceholder, e.Destination)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(e.Body))
	if err != nil {
		return fmt.Errorf("failed to create export request: %w", err)
	}
	for name, vals := range e.Header {
		for _, v := range vals {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("User-Agent", "spring-cloud-function-go/"+version)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post export to %s: %w", u, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode > 299 {
		return fmt.Errorf("export to %s rejected with status %d", u, resp.StatusCode)
	}
	return nil
}

// Close is a noop.
func (s *HTTPSink) Close() error {
	return nil
}

// NATSSink publishes every export to the subject named by its destination.
type NATSSink struct {
	conn           *nats.Conn
	defaultSubject string
}

// NewNATSSink connects to the NATS server at url. Exports without a
// destination are published to defaultSubject.
func NewNATSSink(url, defaultSubject string) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("spring-cloud-function-go/"+version),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSSink{conn: conn, defaultSubject: defaultSubject}, nil
}

// Send publishes the export with its headers.
func (s *NATSSink) Send(ctx context.Context, e Export) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := e.Destination
	if subject == "" {
		subject = s.defaultSubject
	}
	msg := &nats.Msg{
		Subject: subject,
		Data:    e.Body,
	}
	if len(e.Header) > 0 {
		msg.Header = nats.Header(e.Header.Clone())
	}
	if err := s.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish export to %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection, flushing pending publishes.
func (s *NATSSink) Close() error {
	return s.conn.Drain()
}
