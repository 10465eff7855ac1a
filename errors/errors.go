package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"signature-gateway/pkg/signature"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Signature related errors
	ErrSignatureConfig    = 40110 // 服务端缺少密钥
	ErrSignatureMalformed = 40111 // 缺少签名头或格式错误
	ErrSignatureExpired   = 40112 // 签名已过期
	ErrSignatureMismatch  = 40113 // 签名不匹配
	ErrSignatureReplayed  = 40114 // nonce 重复使用
	ErrClientDisabled     = 40302 // 客户已禁用

	// Request related errors
	ErrInvalidPayload     = 40005 // 请求体无法解析
	ErrUnsupportedVersion = 40004 // 不支持的版本

	// Proxy related errors
	ErrUpstreamTimeout = 50401 // 上游服务超时
	ErrUpstreamError   = 50402 // 上游服务错误

	ErrInternal         = 50000 // 内部错误
	ErrNonceUnavailable = 50310 // nonce 存储不可用
)

// APIError represents an API error response
type APIError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
	Data    any      `json:"data,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("API Error %d: %s", e.Code, e.Message)
}

// NewAPIError creates a new API error
func NewAPIError(code int, message string, data any) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, httpStatus int, apiError *APIError) {
	c.JSON(httpStatus, apiError)
	c.Abort()
}

// FromVerifyResult 将签名校验结果转换为 HTTP 状态码和错误响应。
// 响应中只包含诊断信息，不包含密钥或签名原文
func FromVerifyResult(res signature.Result) (int, *APIError) {
	kind := res.Kind()
	apiErr := &APIError{Message: "signature verification failed", Errors: res.Errors()}

	switch {
	case stderrors.Is(kind, signature.ErrMissingSecret):
		apiErr.Code = ErrSignatureConfig
	case stderrors.Is(kind, signature.ErrMissingHeader):
		apiErr.Code = ErrSignatureMalformed
	case stderrors.Is(kind, signature.ErrExpired):
		apiErr.Code = ErrSignatureExpired
	case stderrors.Is(kind, signature.ErrMismatch):
		apiErr.Code = ErrSignatureMismatch
	case stderrors.Is(kind, signature.ErrReplayed):
		apiErr.Code = ErrSignatureReplayed
	case stderrors.Is(kind, signature.ErrNonceStore):
		apiErr.Code = ErrNonceUnavailable
		apiErr.Message = "signature verification unavailable"
		return http.StatusServiceUnavailable, apiErr
	default:
		apiErr.Code = ErrSignatureMismatch
	}
	return http.StatusUnauthorized, apiErr
}

func NewClientDisabledError(clientID string) *APIError {
	return NewAPIError(ErrClientDisabled, "客户已禁用", gin.H{
		"client_id": clientID,
	})
}

func NewTooManyFailuresError() *APIError {
	return NewAPIError(ErrTooManyFailures, "签名校验失败次数过多，请稍后重试", nil)
}

func NewInvalidPayloadError() *APIError {
	return NewAPIError(ErrInvalidPayload, "请求参数无法解析", nil)
}

func NewInternalError() *APIError {
	return NewAPIError(ErrInternal, "内部服务器错误", nil)
}

// Version errors
func NewUnsupportedVersionError(version string) *APIError {
	return NewAPIError(ErrUnsupportedVersion, "不支持的版本", gin.H{
		"version": version,
	})
}

// Proxy errors
func NewUpstreamTimeoutError() *APIError {
	return NewAPIError(ErrUpstreamTimeout, "上游服务超时", nil)
}

func NewUpstreamError(message string) *APIError {
	return NewAPIError(ErrUpstreamError, "上游服务错误", gin.H{
		"upstream_message": message,
	})
}
