package fn

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// APIError defines a error that is shared back to the caller.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error provides a human readable error message.
func (a APIError) Error() string {
	return fmt.Sprintf("[%d] %s", a.Code, a.Message)
}

// statusCode returns the highest code among the errors, defaulting to
// http.StatusInternalServerError.
func statusCode(errs []APIError) int {
	var code int
	for _, e := range errs {
		if e.Code > code {
			code = e.Code
		}
	}
	if code == 0 {
		code = http.StatusInternalServerError
	}
	return code
}

// writeErrResp writes a sad path errors only response.
//
// Note: the highest status code from the errors will be used for the response status.
func writeErrResp(logger *slog.Logger, w http.ResponseWriter, errs ...APIError) {
	b, err := json.Marshal(struct {
		Errors []APIError `json:"errors"`
	}{Errors: errs})
	if err != nil {
		logger.Error("failed to marshal json error payload", "err", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode(errs))
	if _, err := w.Write(b); err != nil {
		logger.Error("failed to write error response", "err", err)
	}
}

// encodeBody returns the wire form of a response value. Strings and byte
// slices are written as they are, everything else as JSON.
func encodeBody(v any) (body []byte, contentType string, err error) {
	switch vv := v.(type) {
	case nil:
		return nil, "", nil
	case string:
		return []byte(vv), "text/plain; charset=utf-8", nil
	case []byte:
		return vv, "application/octet-stream", nil
	case json.RawMessage:
		return vv, "application/json", nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal response body: %w", err)
	}
	return b, "application/json", nil
}
