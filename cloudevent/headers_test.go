package cloudevent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dsyer/spring-cloud-function/cloudevent"
	"github.com/dsyer/spring-cloud-function/message"
)

func TestIsBinary(t *testing.T) {
	tests := []struct {
		name string
		in   message.Headers
		want bool
	}{
		{
			name: "all four required attributes",
			in: message.Headers{
				"ce_id": "1", "ce_source": "src", "ce_specversion": "1.0", "ce_type": "t",
			},
			want: true,
		},
		{
			name: "all four with extra keys",
			in: message.Headers{
				"ce_id": "1", "ce_source": "src", "ce_specversion": "1.0", "ce_type": "t",
				"content-type": "application/json", "ce_subject": "s",
			},
			want: true,
		},
		{
			name: "missing type",
			in:   message.Headers{"ce_id": "1", "ce_source": "src", "ce_specversion": "1.0"},
			want: false,
		},
		{
			name: "http prefixed only",
			in: message.Headers{
				"ce-id": "1", "ce-source": "src", "ce-specversion": "1.0", "ce-type": "t",
			},
			want: false,
		},
		{
			name: "bare only",
			in:   message.Headers{"id": "1", "source": "src", "specversion": "1.0", "type": "t"},
			want: false,
		},
		{
			name: "empty",
			in:   message.Headers{},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cloudevent.IsBinary(tt.in))
		})
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   message.Headers
		want message.Headers
	}{
		{
			name: "bare keys are prefixed",
			in:   message.Headers{"id": "1", "source": "src", "specversion": "1.0", "type": "t", "foo": "bar"},
			want: message.Headers{"ce_id": "1", "ce_source": "src", "ce_specversion": "1.0", "ce_type": "t", "foo": "bar"},
		},
		{
			name: "explicit ce_ value is not overwritten by bare key",
			in:   message.Headers{"id": "bare", "ce_id": "explicit"},
			want: message.Headers{"ce_id": "explicit"},
		},
		{
			name: "http prefixed keys are rewritten",
			in:   message.Headers{"ce-id": "1", "ce-source": "src", "ce-subject": "sub"},
			want: message.Headers{"ce_id": "1", "ce_source": "src", "ce_subject": "sub"},
		},
		{
			name: "http prefixed value wins over bare key",
			in:   message.Headers{"ce-type": "http", "type": "bare"},
			want: message.Headers{"ce_type": "http"},
		},
		{
			name: "http prefixed value overwrites ce_ value",
			in:   message.Headers{"ce-type": "http", "ce_type": "attr"},
			want: message.Headers{"ce_type": "http"},
		},
		{
			name: "non required bare keys pass through",
			in:   message.Headers{"subject": "s", "time": "now"},
			want: message.Headers{"subject": "s", "time": "now"},
		},
		{
			name: "list values are preserved",
			in:   message.Headers{"ce-ext": []string{"a", "b"}},
			want: message.Headers{"ce_ext": []string{"a", "b"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cloudevent.Canonicalize(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalize_idempotent(t *testing.T) {
	inputs := []message.Headers{
		{},
		{"id": "1", "source": "s", "specversion": "1.0", "type": "t"},
		{"id": "bare", "ce_id": "explicit", "ce-id": "http"},
		{"ce-source": "s", "accept": []string{"a", "b"}, "content-type": "text/plain"},
		{"type": "t", "ce-type": "ht", "x-ce-foo": "passes"},
	}
	for _, in := range inputs {
		once := cloudevent.Canonicalize(in)
		twice := cloudevent.Canonicalize(once)
		assert.Equal(t, once, twice, "input: %v", in)
	}
}

func TestHTTP(t *testing.T) {
	in := message.Headers{"ce_id": "1", "ce_type": "t", "content-type": "application/json"}

	got := cloudevent.HTTP(in)

	assert.Equal(t, message.Headers{"ce-id": "1", "ce-type": "t", "content-type": "application/json"}, got)
}

func TestCanonicalizeThenHTTP(t *testing.T) {
	in := message.Headers{
		"id": "1", "source": "src", "specversion": "1.0", "type": "t",
		"content-type": "application/json", "x-custom": "v",
	}

	got := cloudevent.HTTP(cloudevent.Canonicalize(in))

	assert.Equal(t, message.Headers{
		"ce-id": "1", "ce-source": "src", "ce-specversion": "1.0", "ce-type": "t",
		"content-type": "application/json", "x-custom": "v",
	}, got)
}
