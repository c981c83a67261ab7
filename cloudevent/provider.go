package cloudevent

import (
	"reflect"

	"github.com/dsyer/spring-cloud-function/message"
)

const (
	defaultSource     = "https://spring.io/default-source"
	defaultType       = "spring.io.DefaultEventType"
	applicationPrefix = "http://spring.io/"
)

// ProviderConfig configures the defaults a Provider falls back on.
type ProviderConfig struct {
	// Source and Type, when set, always win.
	Source string
	Type   string

	// ApplicationName or, when empty, ContextID names the application in the
	// computed default source.
	ApplicationName string
	ContextID       string

	// DefaultSource is used when no source can be resolved otherwise.
	DefaultSource string
	// DefaultType is used for a nil result.
	DefaultType string
}

// Provider resolves the attributes of Cloud Events produced by functions.
type Provider struct {
	source      string
	typ         string
	appSource   string
	defaultSrc  string
	defaultType string
}

// NewProvider creates a provider from the config.
func NewProvider(cfg ProviderConfig) *Provider {
	p := &Provider{
		source:      cfg.Source,
		typ:         cfg.Type,
		defaultSrc:  cfg.DefaultSource,
		defaultType: cfg.DefaultType,
	}
	if p.defaultSrc == "" {
		p.defaultSrc = defaultSource
	}
	if p.defaultType == "" {
		p.defaultType = defaultType
	}

	switch {
	case cfg.ApplicationName != "":
		p.appSource = applicationPrefix + cfg.ApplicationName
	case cfg.ContextID != "":
		p.appSource = applicationPrefix + cfg.ContextID
	}
	return p
}

// Get creates validated attributes, see Get.
func (p *Provider) Get(id, specVersion, source, typ string) (Attributes, error) {
	return Get(id, specVersion, source, typ)
}

// GetDefault creates attributes with a generated id, see GetDefault.
func (p *Provider) GetDefault(source, typ string) (Attributes, error) {
	return GetDefault(source, typ)
}

// FromHeaders copies every header and sets source and type to their resolved
// defaults.
func (p *Provider) FromHeaders(h message.Headers) Attributes {
	return FromHeaders(h).SetSource(p.Source(h)).SetType(p.Type(nil))
}

// GenerateDefaultCloudEventHeaders produces the headers of the Cloud Event
// emitted for result when in is itself a Cloud Event. The id is the id of the
// inbound message. Inputs that are not Cloud Events produce empty headers.
func (p *Provider) GenerateDefaultCloudEventHeaders(in message.Untyped, result any) message.Headers {
	if !in.Headers.Has(CEID) {
		return message.Headers{}
	}
	return p.FromHeaders(in.Headers).
		SetID(in.Headers.ID()).
		SetType(p.Type(result)).
		SetSource(p.Source(in.Headers)).
		Headers()
}

// Source resolves the source: configured, inbound "ce_source", application
// derived, then the default.
func (p *Provider) Source(h message.Headers) string {
	if p.source != "" {
		return p.source
	}
	if src := h.Get(CESource); src != "" {
		return src
	}
	if p.appSource != "" {
		return p.appSource
	}
	return p.defaultSrc
}

// Type resolves the type: configured, the Go type of result, then the default
// for a nil result.
func (p *Provider) Type(result any) string {
	if p.typ != "" {
		return p.typ
	}
	if result == nil {
		return p.defaultType
	}
	return reflect.TypeOf(result).String()
}
