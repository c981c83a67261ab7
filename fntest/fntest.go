// Package fntest provides helpers for testing catalogs served over HTTP.
package fntest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xeipuuv/gojsonschema"
)

// NewLogger creates a new logger that integrates with the testing.T logging.
func NewLogger(t *testing.T) *slog.Logger {
	return slog.New(slog.NewJSONHandler(&testLogger{t: t}, nil))
}

type testLogger struct {
	t *testing.T
}

func (t *testLogger) Write(p []byte) (int, error) {
	t.t.Log(string(p))
	return len(p), nil
}

// Do serves r with h and returns the recorded response.
func Do(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

// SchemaOK validates that the provided schema conforms to JSON Schema.
func SchemaOK(schema string) error {
	schemaLoader := gojsonschema.NewSchemaLoader()
	_, err := schemaLoader.Compile(gojsonschema.NewStringLoader(schema))
	return err
}

// HandlerSchemaOK validates the request body against reqSchema, serves the
// request with h and validates the response body against respSchema. Empty
// schemas are skipped.
func HandlerSchemaOK(h http.Handler, r *http.Request, reqSchema, respSchema string) error {
	var body []byte
	if r.Body != nil {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return fmt.Errorf("failed to read request body: %w", err)
		}
		body = b
		r.Body = io.NopCloser(bytes.NewReader(b))
	}

	if reqSchema != "" {
		if err := validateSchema(reqSchema, body); err != nil {
			return fmt.Errorf("failed request schema validation: %w", err)
		}
	}

	rec := Do(h, r)

	if respSchema != "" {
		if err := validateSchema(respSchema, rec.Body.Bytes()); err != nil {
			return fmt.Errorf("failed response schema validation: %w", err)
		}
	}

	return nil
}

func validateSchema(schema string, payload []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to validate document against schema: %w", err)
	}

	var errs []error
	for _, resErr := range result.Errors() {
		errMsg := resErr.String()
		// the library prefixes root level messages with (root): which is best
		// replaced by the description
		if resErr.Field() == "(root)" {
			errMsg = resErr.Description()
		}
		errs = append(errs, errors.New(errMsg))
	}

	return errors.Join(errs...)
}
