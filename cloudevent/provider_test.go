package cloudevent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dsyer/spring-cloud-function/cloudevent"
	"github.com/dsyer/spring-cloud-function/message"
)

type releaseEvent struct {
	Version string `json:"version"`
}

func TestProvider_Source(t *testing.T) {
	tests := []struct {
		name    string
		cfg     cloudevent.ProviderConfig
		headers message.Headers
		want    string
	}{
		{
			name:    "configured source wins",
			cfg:     cloudevent.ProviderConfig{Source: "https://configured", ApplicationName: "app"},
			headers: message.Headers{"ce_source": "https://inbound"},
			want:    "https://configured",
		},
		{
			name:    "inbound source before application name",
			cfg:     cloudevent.ProviderConfig{ApplicationName: "app"},
			headers: message.Headers{"ce_source": "https://inbound"},
			want:    "https://inbound",
		},
		{
			name: "application name",
			cfg:  cloudevent.ProviderConfig{ApplicationName: "app", ContextID: "ctx"},
			want: "http://spring.io/app",
		},
		{
			name: "context id when application name is absent",
			cfg:  cloudevent.ProviderConfig{ContextID: "ctx"},
			want: "http://spring.io/ctx",
		},
		{
			name: "default source",
			want: "https://spring.io/default-source",
		},
		{
			name: "custom default source",
			cfg:  cloudevent.ProviderConfig{DefaultSource: "https://fallback"},
			want: "https://fallback",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := cloudevent.NewProvider(tt.cfg)
			assert.Equal(t, tt.want, p.Source(tt.headers))
		})
	}
}

func TestProvider_Type(t *testing.T) {
	p := cloudevent.NewProvider(cloudevent.ProviderConfig{})
	assert.Equal(t, "spring.io.DefaultEventType", p.Type(nil))
	assert.Equal(t, "string", p.Type("hello"))
	assert.Equal(t, "cloudevent_test.releaseEvent", p.Type(releaseEvent{}))

	p = cloudevent.NewProvider(cloudevent.ProviderConfig{Type: "configured"})
	assert.Equal(t, "configured", p.Type(releaseEvent{}))
}

func TestProvider_GenerateDefaultCloudEventHeaders(t *testing.T) {
	p := cloudevent.NewProvider(cloudevent.ProviderConfig{ApplicationName: "demo"})

	t.Run("cloud event input", func(t *testing.T) {
		in := message.New[any]("payload", message.Headers{
			"ce_id":          "inbound-id",
			"ce_source":      "https://inbound",
			"ce_specversion": "1.0",
			"ce_type":        "inbound.type",
			"ce_subject":     "kept",
		})

		got := cloudevent.FromHeaders(p.GenerateDefaultCloudEventHeaders(in, releaseEvent{}))

		assert.Equal(t, in.Headers.ID(), got.ID())
		assert.NotEqual(t, "inbound-id", got.ID())
		assert.Equal(t, "cloudevent_test.releaseEvent", got.Type())
		assert.Equal(t, "https://inbound", got.Source())
		assert.Equal(t, "1.0", got.SpecVersion())
		assert.Equal(t, "kept", got.Subject())
	})

	t.Run("plain input", func(t *testing.T) {
		in := message.New[any]("payload", message.Headers{"content-type": "text/plain"})

		got := p.GenerateDefaultCloudEventHeaders(in, "result")

		assert.Empty(t, got)
	})
}

func TestProvider_FromHeaders(t *testing.T) {
	p := cloudevent.NewProvider(cloudevent.ProviderConfig{})

	got := p.FromHeaders(message.Headers{"ce_id": "1", "foo": "bar"})

	assert.Equal(t, "1", got.ID())
	assert.Equal(t, "https://spring.io/default-source", got.Source())
	assert.Equal(t, "spring.io.DefaultEventType", got.Type())
	assert.Equal(t, "bar", got.Headers().Get("foo"))
}
