package message_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsyer/spring-cloud-function/message"
)

func TestNew(t *testing.T) {
	in := message.Headers{"id": "inbound", "foo": "bar"}

	m1 := message.New("payload", in)
	m2 := message.New("payload", in)

	assert.Equal(t, "payload", m1.Payload)
	assert.Equal(t, "bar", m1.Headers.Get("foo"))
	assert.NotEmpty(t, m1.Headers.ID())
	assert.NotEqual(t, "inbound", m1.Headers.ID())
	assert.NotEqual(t, m1.Headers.ID(), m2.Headers.ID())
	assert.Equal(t, "inbound", in.ID(), "source headers must not be mutated")
}

func TestNew_nilHeaders(t *testing.T) {
	m := message.New(42, nil)
	require.NotNil(t, m.Headers)
	assert.NotEmpty(t, m.Headers.ID())

	u := m.Untype()
	assert.Equal(t, any(42), u.Payload)
}

func TestHeaders_Get(t *testing.T) {
	h := message.Headers{
		"scalar": "one",
		"list":   []string{"a", "b"},
		"empty":  []string{},
		"int":    7,
	}

	assert.Equal(t, "one", h.Get("scalar"))
	assert.Equal(t, "a", h.Get("list"))
	assert.Equal(t, "", h.Get("empty"))
	assert.Equal(t, "7", h.Get("int"))
	assert.Equal(t, "", h.Get("missing"))
	assert.True(t, h.Has("empty"))
	assert.False(t, h.Has("missing"))
}

func TestFromHTTP(t *testing.T) {
	h := http.Header{
		"Content-Type":   []string{"application/json"},
		"Ce-Id":          []string{"1"},
		"Accept":         []string{"a", "b"},
		"Id":             []string{"should-not-pass"},
		"Content-Length": []string{"0"},
	}

	got := message.FromHTTP(h)

	assert.Equal(t, message.Headers{
		"content-type": "application/json",
		"ce-id":        "1",
		"accept":       []string{"a", "b"},
	}, got)
}

func TestToHTTP(t *testing.T) {
	h := message.Headers{
		"X-Foo":          "bar",
		"multi":          []string{"1", "2"},
		"id":             "abc",
		"content-length": "0",
		"count":          3,
	}

	got := message.ToHTTP(h)

	assert.Equal(t, []string{"bar"}, got["x-foo"])
	assert.Equal(t, []string{"1", "2"}, got["multi"])
	assert.Equal(t, []string{"3"}, got["count"])
	assert.NotContains(t, got, "id")
	assert.NotContains(t, got, "content-length")
}

func TestToHTTP_caseCollision(t *testing.T) {
	h := message.Headers{
		"X-Trace": "upper",
		"x-trace": "lower",
		"X-trace": "mixed",
	}

	for range 20 {
		got := message.ToHTTP(h)
		assert.Equal(t, []string{"lower"}, got["x-trace"])
		assert.Len(t, got, 1)
	}
}

func TestOf(t *testing.T) {
	typed := message.New("hi", message.Headers{"x-a": "b"})

	m, ok := message.Of(typed)
	require.True(t, ok)
	assert.Equal(t, "hi", m.Payload)
	assert.Equal(t, "b", m.Headers.Get("x-a"))

	m, ok = message.Of(typed.Untype())
	require.True(t, ok)
	assert.Equal(t, "hi", m.Payload)

	_, ok = message.Of("hi")
	assert.False(t, ok)
}
