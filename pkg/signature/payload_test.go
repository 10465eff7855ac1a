package signature

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadFromRequest(t *testing.T) {
	t.Run("query only", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items?b=2&a=1&tag=x&tag=y", nil)
		payload, err := PayloadFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, Payload{"a": "1", "b": "2", "tag": []any{"x", "y"}}, payload)
	})

	t.Run("json body keeps number digits and is restored", func(t *testing.T) {
		body := `{"amount": 10.50, "name": "box", "meta": {"k": "v"}}`
		req := httptest.NewRequest(http.MethodPost, "/orders?src=web", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")

		payload, err := PayloadFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, json.Number("10.50"), payload["amount"])
		assert.Equal(t, "box", payload["name"])
		assert.Equal(t, "web", payload["src"])
		assert.Equal(t, map[string]any{"k": "v"}, payload["meta"])

		rest, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.Equal(t, body, string(rest))
	})

	t.Run("body overrides query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/?a=query", strings.NewReader(`{"a":"body"}`))
		payload, err := PayloadFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "body", payload["a"])
	})

	t.Run("form body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a=1&b=two+words"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		payload, err := PayloadFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, Payload{"a": "1", "b": "two words"}, payload)
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("  "))
		payload, err := PayloadFromRequest(req)
		require.NoError(t, err)
		assert.Empty(t, payload)
	})

	t.Run("json array rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`[1,2]`))
		req.Header.Set("Content-Type", "application/json")
		_, err := PayloadFromRequest(req)
		assert.ErrorIs(t, err, ErrUnsupportedPayload)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("raw"))
		req.Header.Set("Content-Type", "application/octet-stream")
		_, err := PayloadFromRequest(req)
		assert.ErrorIs(t, err, ErrUnsupportedPayload)
	})
}

func TestHeadersFromHTTP(t *testing.T) {
	h := http.Header{}
	h.Set("x-client-id", "c1")
	h.Set("X-NONCE", "n1")
	h.Set("Other", "ignored")

	headers := HeadersFromHTTP(h)
	assert.Equal(t, Headers{HeaderClientID: "c1", HeaderNonce: "n1"}, headers)
	assert.Equal(t, "c1", headers.Get("x-client-id"))
	assert.Empty(t, headers.Get(HeaderSignature))
}
