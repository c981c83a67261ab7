// Package cloudevent translates between the three spellings of Cloud Event
// attributes (bare, "ce_" prefixed message headers and "ce-" prefixed HTTP
// headers) and builds the attribute sets functions attach to their output.
//
// See https://cloudevents.io for the attribute definitions.
package cloudevent

import (
	"strings"

	"github.com/dsyer/spring-cloud-function/message"
)

const (
	// ApplicationCloudEvents is the media type prefix of Cloud Events.
	ApplicationCloudEvents = "application/cloudevents"
	// ApplicationCloudEventsJSON is the media type of a structured mode JSON Cloud Event.
	ApplicationCloudEventsJSON = ApplicationCloudEvents + "+json"

	// AttrPrefix prefixes attributes stored in message headers.
	AttrPrefix = "ce_"
	// HTTPPrefix prefixes attributes carried as HTTP headers.
	HTTPPrefix = "ce-"
)

// Attribute names.
const (
	ID              = "id"
	Source          = "source"
	SpecVersion     = "specversion"
	Type            = "type"
	DataContentType = "datacontenttype"
	DataSchema      = "dataschema"
	Subject         = "subject"
	Time            = "time"
	Data            = "data"
)

// Attribute names as message header keys.
const (
	CEID              = AttrPrefix + ID
	CESource          = AttrPrefix + Source
	CESpecVersion     = AttrPrefix + SpecVersion
	CEType            = AttrPrefix + Type
	CEDataContentType = AttrPrefix + DataContentType
	CEDataSchema      = AttrPrefix + DataSchema
	CESubject         = AttrPrefix + Subject
	CETime            = AttrPrefix + Time
	CEData            = AttrPrefix + Data
)

// Required attribute names as HTTP header keys.
const (
	HTTPID          = HTTPPrefix + ID
	HTTPSource      = HTTPPrefix + Source
	HTTPSpecVersion = HTTPPrefix + SpecVersion
	HTTPType        = HTTPPrefix + Type
)

// IsBinary reports whether the headers carry a binary mode Cloud Event, that
// is all four required attributes in their "ce_" form.
func IsBinary(h message.Headers) bool {
	return h.Has(CEID) && h.Has(CESource) && h.Has(CESpecVersion) && h.Has(CEType)
}

// Canonicalize returns headers with the Cloud Event attributes in their "ce_"
// form. Bare required attribute names are copied only when the "ce_" key is
// not already present. "ce-" keys are rewritten to "ce_" and overwrite what is
// there. Every other key passes through. Applying it twice yields the result
// of applying it once.
func Canonicalize(h message.Headers) message.Headers {
	out := make(message.Headers, len(h))

	var bare []string
	for k, v := range h {
		switch k {
		case Source, Type, SpecVersion, ID:
			bare = append(bare, k)
		default:
			if !strings.HasPrefix(k, HTTPPrefix) {
				out[k] = v
			}
		}
	}
	for k, v := range h {
		if rest, ok := strings.CutPrefix(k, HTTPPrefix); ok {
			out[AttrPrefix+rest] = v
		}
	}
	for _, k := range bare {
		if _, ok := out[AttrPrefix+k]; !ok {
			out[AttrPrefix+k] = h[k]
		}
	}
	return out
}

// HTTP returns headers with every "ce_" key rewritten to its "ce-" form.
func HTTP(h message.Headers) message.Headers {
	out := make(message.Headers, len(h))
	for k, v := range h {
		if !strings.HasPrefix(k, AttrPrefix) {
			out[k] = v
		}
	}
	for k, v := range h {
		if rest, ok := strings.CutPrefix(k, AttrPrefix); ok {
			out[HTTPPrefix+rest] = v
		}
	}
	return out
}
