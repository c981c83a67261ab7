package cloudevent

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/google/uuid"

	"github.com/dsyer/spring-cloud-function/message"
)

// DefaultSpecVersion is the spec version of generated attributes.
const DefaultSpecVersion = "1.0"

// ErrBlankAttribute is returned when a required attribute is empty.
var ErrBlankAttribute = errors.New("required cloud event attribute is blank")

// Attributes is an immutable set of Cloud Event attributes keyed by their
// "ce_" header names. Setters return a modified copy.
type Attributes struct {
	h message.Headers
}

// Get creates attributes from the four required values. A blank value
// results in an error wrapping ErrBlankAttribute.
func Get(id, specVersion, source, typ string) (Attributes, error) {
	required := []struct{ key, val string }{
		{CEID, id},
		{CESpecVersion, specVersion},
		{CESource, source},
		{CEType, typ},
	}

	var errs []error
	h := make(message.Headers, len(required))
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			errs = append(errs, fmt.Errorf("%w: '%s' must not be null or empty", ErrBlankAttribute, r.key))
			continue
		}
		h[r.key] = r.val
	}
	if err := errors.Join(errs...); err != nil {
		return Attributes{}, err
	}
	return Attributes{h: h}, nil
}

// GetDefault creates attributes with a generated id and the default spec version.
func GetDefault(source, typ string) (Attributes, error) {
	return Get(uuid.NewString(), DefaultSpecVersion, source, typ)
}

// FromHeaders wraps a copy of the headers without validating them.
func FromHeaders(h message.Headers) Attributes {
	return Attributes{h: h.Clone()}
}

// ID returns the id attribute.
func (a Attributes) ID() string { return a.h.Get(CEID) }

// Source returns the source attribute.
func (a Attributes) Source() string { return a.h.Get(CESource) }

// Type returns the type attribute.
func (a Attributes) Type() string { return a.h.Get(CEType) }

// SpecVersion returns the specversion attribute.
func (a Attributes) SpecVersion() string { return a.h.Get(CESpecVersion) }

// Subject returns the subject attribute.
func (a Attributes) Subject() string { return a.h.Get(CESubject) }

// DataContentType returns the datacontenttype attribute.
func (a Attributes) DataContentType() string { return a.h.Get(CEDataContentType) }

// DataSchema returns the dataschema attribute.
func (a Attributes) DataSchema() string { return a.h.Get(CEDataSchema) }

// Time returns the parsed time attribute, or the zero time when it is absent
// or malformed.
func (a Attributes) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, a.h.Get(CETime))
	if err != nil {
		return time.Time{}
	}
	return t
}

// SetID returns a copy with the id attribute set.
func (a Attributes) SetID(id string) Attributes { return a.with(CEID, id) }

// SetSource returns a copy with the source attribute set.
func (a Attributes) SetSource(source string) Attributes { return a.with(CESource, source) }

// SetType returns a copy with the type attribute set.
func (a Attributes) SetType(typ string) Attributes { return a.with(CEType, typ) }

// SetSpecVersion returns a copy with the specversion attribute set.
func (a Attributes) SetSpecVersion(v string) Attributes { return a.with(CESpecVersion, v) }

// SetSubject returns a copy with the subject attribute set.
func (a Attributes) SetSubject(subject string) Attributes { return a.with(CESubject, subject) }

// SetDataContentType returns a copy with the datacontenttype attribute set.
func (a Attributes) SetDataContentType(ct string) Attributes { return a.with(CEDataContentType, ct) }

// SetDataSchema returns a copy with the dataschema attribute set.
func (a Attributes) SetDataSchema(schema string) Attributes { return a.with(CEDataSchema, schema) }

// SetTime returns a copy with the time attribute set, formatted in UTC.
func (a Attributes) SetTime(t time.Time) Attributes {
	return a.with(CETime, t.UTC().Format(time.RFC3339Nano))
}

func (a Attributes) with(key, val string) Attributes {
	h := a.h.Clone()
	h[key] = val
	return Attributes{h: h}
}

// Headers returns a copy of the underlying headers.
func (a Attributes) Headers() message.Headers {
	return a.h.Clone()
}

// Event converts the attributes into a validated Cloud Event without data.
// Unknown "ce_" attributes become extensions.
func (a Attributes) Event() (event.Event, error) {
	e := event.New(a.SpecVersion())
	e.SetID(a.ID())
	e.SetSource(a.Source())
	e.SetType(a.Type())
	if v := a.Subject(); v != "" {
		e.SetSubject(v)
	}
	if v := a.DataContentType(); v != "" {
		e.SetDataContentType(v)
	}
	if v := a.DataSchema(); v != "" {
		e.SetDataSchema(v)
	}
	if t := a.Time(); !t.IsZero() {
		e.SetTime(t)
	}

	for k := range a.h {
		name, ok := strings.CutPrefix(k, AttrPrefix)
		if !ok || knownAttrs[name] {
			continue
		}
		e.SetExtension(name, a.h.Get(k))
	}

	if err := e.Validate(); err != nil {
		return event.Event{}, fmt.Errorf("invalid cloud event attributes: %w", err)
	}
	return e, nil
}

var knownAttrs = map[string]bool{
	ID:              true,
	Source:          true,
	SpecVersion:     true,
	Type:            true,
	DataContentType: true,
	DataSchema:      true,
	Subject:         true,
	Time:            true,
	Data:            true,
}
