package signature

import (
	"errors"
	"strings"
)

// Verification failure kinds.
var (
	// ErrMissingSecret 缺少签名密钥，需检查凭证配置，不可重试
	ErrMissingSecret = errors.New("signature: missing secret key")

	// ErrMissingHeader 缺少或无法解析必要头部，需补全后重新发送
	ErrMissingHeader = errors.New("signature: malformed request")

	// ErrExpired 签名超出有效期，重新签名后可重试
	ErrExpired = errors.New("signature: expired")

	// ErrMismatch 签名不匹配，相同输入重试结果不变
	ErrMismatch = errors.New("signature: mismatch")

	// ErrReplayed nonce 在有效期内已被使用
	ErrReplayed = errors.New("signature: nonce replayed")

	// ErrNonceStore nonce 存储不可用
	ErrNonceStore = errors.New("signature: nonce store unavailable")
)

// VerifyError carries the diagnostics of a failed verification. It unwraps
// to the failure kind.
type VerifyError struct {
	Kind     error
	Messages []string
	Cause    error
}

func (e *VerifyError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *VerifyError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// Result is the outcome of a single Verify call. It is a value; nothing is
// retained on the Service between calls.
type Result struct {
	OK     bool
	kind   error
	cause  error
	errors []string
}

func failed(kind error, messages ...string) Result {
	return Result{kind: kind, errors: messages}
}

// Errors returns the accumulated diagnostics in the order they were found.
func (r Result) Errors() []string {
	out := make([]string, len(r.errors))
	copy(out, r.errors)
	return out
}

// FirstError returns the first diagnostic, or an empty string.
func (r Result) FirstError() string {
	if len(r.errors) == 0 {
		return ""
	}
	return r.errors[0]
}

// Kind returns the failure kind, nil when the signature was accepted.
func (r Result) Kind() error {
	return r.kind
}

// Err returns nil for an accepted signature, otherwise a *VerifyError.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return &VerifyError{Kind: r.kind, Messages: r.Errors(), Cause: r.cause}
}
