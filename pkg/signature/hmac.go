package signature

import (
	"context"
	"crypto/hmac"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"signature-gateway/pkg/uniqid"
)

const (
	// NonceLength 随机数长度
	NonceLength = 8
	// ClientIDLength / SecretKeyLength 凭证长度
	ClientIDLength  = 32
	SecretKeyLength = 128
	// DefaultWindow 签名有效期
	DefaultWindow = 60 * time.Second
)

// Service signs and verifies payloads with one shared secret. It is safe for
// concurrent use.
type Service struct {
	secretKey  []byte
	algorithm  Algorithm
	window     time.Duration
	futureSkew time.Duration
	nonces     NonceStore
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithAlgorithm sets the HMAC digest algorithm. Empty or unsupported values
// leave the current algorithm in place; use ParseAlgorithm to reject them.
func WithAlgorithm(alg Algorithm) Option {
	return func(s *Service) {
		if alg.Supported() {
			s.algorithm = alg
		}
	}
}

// WithWindow sets the validity window; values under one second are ignored.
func WithWindow(window time.Duration) Option {
	return func(s *Service) {
		if window >= time.Second {
			s.window = window
		}
	}
}

// WithFutureSkew rejects timestamps more than skew ahead of the server clock.
// Zero keeps the check disabled.
func WithFutureSkew(skew time.Duration) Option {
	return func(s *Service) {
		s.futureSkew = skew
	}
}

// WithNonceStore enables replay detection within the validity window.
func WithNonceStore(store NonceStore) Option {
	return func(s *Service) {
		s.nonces = store
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService 创建签名服务
func NewService(secretKey string, opts ...Option) *Service {
	s := &Service{
		secretKey: []byte(secretKey),
		algorithm: DefaultAlgorithm,
		window:    DefaultWindow,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provision 生成新的 client-id 与 secret-key，由调用方负责保存
func Provision() (Credential, error) {
	clientID, err := uniqid.Generate(ClientIDLength)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to generate client id: %w", err)
	}
	secretKey, err := uniqid.Generate(SecretKeyLength)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to generate secret key: %w", err)
	}
	return Credential{ClientID: clientID, SecretKey: secretKey}, nil
}

// Generate 生成签名。返回的 Envelope 不含 ClientID
func (s *Service) Generate(payload Payload) (Envelope, error) {
	if len(s.secretKey) == 0 {
		return Envelope{}, ErrMissingSecret
	}

	nonce, err := uniqid.Generate(NonceLength)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to generate nonce: %w", err)
	}
	timestamp := s.now().Unix()

	digest := s.digest(Canonicalize(payload), nonce, strconv.FormatInt(timestamp, 10))

	return Envelope{
		Nonce:     nonce,
		Timestamp: timestamp,
		Signature: base64.StdEncoding.EncodeToString(digest),
	}, nil
}

// Verify 验证签名
//
// Header presence is checked for all four headers before returning, so the
// result lists every missing header. Timestamp and signature checks only run
// once the headers are complete.
func (s *Service) Verify(ctx context.Context, headers Headers, payload Payload) Result {
	if len(s.secretKey) == 0 {
		return failed(ErrMissingSecret, "missing secret key, check "+HeaderClientID)
	}

	var missing []string
	for _, name := range RequiredHeaders {
		if headers.Get(name) == "" {
			missing = append(missing, fmt.Sprintf("missing required header 【%s】", name))
		}
	}
	if len(missing) > 0 {
		return failed(ErrMissingHeader, missing...)
	}

	rawTimestamp := headers.Get(HeaderTimestamp)
	timestamp, err := strconv.ParseInt(rawTimestamp, 10, 64)
	if err != nil {
		return failed(ErrMissingHeader, fmt.Sprintf("invalid timestamp 【%s】", HeaderTimestamp))
	}

	now := s.now().Unix()
	if now-timestamp > int64(s.window/time.Second) {
		return failed(ErrExpired, "signature expired, re-sign or sync clock")
	}
	if s.futureSkew > 0 && timestamp-now > int64(s.futureSkew/time.Second) {
		return failed(ErrExpired, "signature timestamp is in the future, sync clock")
	}

	nonce := headers.Get(HeaderNonce)
	expected := s.digest(Canonicalize(payload), nonce, rawTimestamp)
	provided, err := base64.StdEncoding.DecodeString(headers.Get(HeaderSignature))
	if err != nil || !hmac.Equal(expected, provided) {
		return failed(ErrMismatch, "signature verification failed")
	}

	if s.nonces != nil {
		ok, err := s.nonces.Claim(ctx, headers.Get(HeaderClientID)+":"+nonce, s.window+s.futureSkew)
		if err != nil {
			res := failed(ErrNonceStore, "nonce check unavailable")
			res.cause = err
			return res
		}
		if !ok {
			return failed(ErrReplayed, "nonce already used, re-sign the request")
		}
	}

	return Result{OK: true}
}

// digest returns the lowercase hex HMAC of query||nonce||timestamp; the hex
// form is what gets base64-encoded on the wire.
func (s *Service) digest(query, nonce, timestamp string) []byte {
	mac := hmac.New(s.algorithm.hash(), s.secretKey)
	mac.Write([]byte(query))
	mac.Write([]byte(nonce))
	mac.Write([]byte(timestamp))
	sum := mac.Sum(nil)

	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out
}
