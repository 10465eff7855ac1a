package signature

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// 签名协议头
const (
	HeaderClientID  = "X-Client-Id"
	HeaderNonce     = "X-Nonce"
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"
)

// RequiredHeaders lists the headers Verify expects, in the order they are checked.
var RequiredHeaders = []string{HeaderClientID, HeaderNonce, HeaderTimestamp, HeaderSignature}

// Payload 待签名的业务参数
type Payload map[string]any

// Credential 分配给调用方的签名凭证
type Credential struct {
	ClientID  string `json:"client_id"`
	SecretKey string `json:"secret_key"`
}

// Envelope is the header set carried by a signed request. Generate leaves
// ClientID empty; the caller stamps it before sending.
type Envelope struct {
	ClientID  string
	Nonce     string
	Timestamp int64
	Signature string
}

// Headers renders the envelope as protocol headers.
func (e Envelope) Headers() Headers {
	return Headers{
		HeaderClientID:  e.ClientID,
		HeaderNonce:     e.Nonce,
		HeaderTimestamp: strconv.FormatInt(e.Timestamp, 10),
		HeaderSignature: e.Signature,
	}
}

// Apply sets the envelope headers on h, replacing existing values.
func (e Envelope) Apply(h http.Header) {
	for name, value := range e.Headers() {
		h.Set(name, value)
	}
}

// Headers 协议头集合，按名称不区分大小写读取
type Headers map[string]string

// Get returns the value for name, matching case-insensitively.
func (h Headers) Get(name string) string {
	if v, ok := h[name]; ok {
		return v
	}
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// HeadersFromHTTP picks the protocol headers out of an HTTP header set.
func HeadersFromHTTP(h http.Header) Headers {
	headers := make(Headers, len(RequiredHeaders))
	for _, name := range RequiredHeaders {
		if v := h.Get(name); v != "" {
			headers[name] = v
		}
	}
	return headers
}

// NonceStore remembers nonces for the lifetime of a signature. Claim reports
// false when key was already claimed and has not expired.
type NonceStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
