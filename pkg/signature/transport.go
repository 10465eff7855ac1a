package signature

import (
	"fmt"
	"net/http"
)

// Transport is an http.RoundTripper that signs outgoing requests with a
// credential before handing them to the base transport.
type Transport struct {
	base     http.RoundTripper
	clientID string
	service  *Service
}

// NewTransport creates a signing transport. When base is nil, a clone of
// http.DefaultTransport is used.
func NewTransport(base http.RoundTripper, credential Credential, opts ...Option) *Transport {
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}
	return &Transport{
		base:     base,
		clientID: credential.ClientID,
		service:  NewService(credential.SecretKey, opts...),
	}
}

// RoundTrip signs a clone of req; the caller's request is not modified.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if clone.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}

	payload, err := PayloadFromRequest(clone)
	if err != nil {
		return nil, fmt.Errorf("failed to extract payload: %w", err)
	}

	envelope, err := t.service.Generate(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}
	envelope.ClientID = t.clientID
	envelope.Apply(clone.Header)

	return t.base.RoundTrip(clone)
}
