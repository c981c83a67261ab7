package cloudevent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/dsyer/spring-cloud-function/message"
)

// IsStructured reports whether the content type denotes a structured mode
// Cloud Event.
func IsStructured(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), ApplicationCloudEventsJSON)
}

// FromStructured decodes a structured mode JSON Cloud Event into its
// attributes, as "ce_" headers, and its raw data.
func FromStructured(body []byte) (message.Headers, []byte, error) {
	var e event.Event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, nil, fmt.Errorf("failed to decode structured cloud event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid structured cloud event: %w", err)
	}

	h := message.Headers{
		CEID:          e.ID(),
		CESource:      e.Source(),
		CESpecVersion: e.SpecVersion(),
		CEType:        e.Type(),
	}
	if v := e.Subject(); v != "" {
		h[CESubject] = v
	}
	if v := e.DataContentType(); v != "" {
		h[CEDataContentType] = v
	}
	if v := e.DataSchema(); v != "" {
		h[CEDataSchema] = v
	}
	if t := e.Time(); !t.IsZero() {
		h[CETime] = t.UTC().Format(time.RFC3339Nano)
	}
	for k, v := range e.Extensions() {
		h[AttrPrefix+k] = fmt.Sprint(v)
	}

	return h, e.Data(), nil
}
