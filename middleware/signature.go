package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"signature-gateway/errors"
	"signature-gateway/pkg/logger"
	"signature-gateway/pkg/metrics"
	"signature-gateway/pkg/signature"
	"signature-gateway/service"

	"github.com/gin-gonic/gin"
)

// SignatureMiddleware 签名认证中间件
type SignatureMiddleware struct {
	signatures service.SignatureServiceInterface
	metrics    *metrics.GatewayMetrics
}

// NewSignatureMiddleware 创建签名认证中间件
func NewSignatureMiddleware(signatures service.SignatureServiceInterface) *SignatureMiddleware {
	return &SignatureMiddleware{
		signatures: signatures,
		metrics:    metrics.GetMetrics(),
	}
}

// Verify 校验 X-Client-Id / X-Nonce / X-Timestamp / X-Signature，通过后把客户信息写入上下文
func (m *SignatureMiddleware) Verify() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.WithContext(c.Request.Context())

		payload, err := signature.PayloadFromRequest(c.Request)
		if err != nil {
			log.Infof("Rejecting request with unreadable payload: %v", err)
			errors.RespondWithError(c, http.StatusBadRequest, errors.NewInvalidPayloadError())
			return
		}

		headers := signature.HeadersFromHTTP(c.Request.Header)
		c.Set(ContextKeyClientID, headers.Get(signature.HeaderClientID))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		client, res, err := m.signatures.Verify(ctx, headers, payload)
		if err != nil {
			log.Errorf("Signature verification aborted: %v", err)
			errors.RespondWithError(c, http.StatusInternalServerError, errors.NewInternalError())
			return
		}

		c.Set(ContextKeyResult, res)
		if client != nil {
			c.Set(ContextKeyKnownClientID, client.ClientID)
		}
		m.metrics.SignatureVerifications.WithLabelValues(outcome(res)).Inc()

		if !res.OK {
			status, apiErr := errors.FromVerifyResult(res)
			if status >= http.StatusInternalServerError {
				log.Errorf("Signature verification unavailable: %v", res.Err())
			} else {
				log.Infof("Signature rejected for client %s: %s",
					headers.Get(signature.HeaderClientID), strings.Join(res.Errors(), "; "))
			}
			errors.RespondWithError(c, status, apiErr)
			return
		}

		if !client.IsActive() {
			log.Infof("Client %s is disabled", client.ClientID)
			errors.RespondWithError(c, http.StatusForbidden, errors.NewClientDisabledError(client.ClientID))
			return
		}

		c.Set(ContextKeyClient, client)
		c.Next()
	}
}

func outcome(res signature.Result) string {
	if res.OK {
		return metrics.OutcomeAccepted
	}
	kind := res.Kind()
	switch {
	case stderrors.Is(kind, signature.ErrMissingSecret):
		return metrics.OutcomeMissingKey
	case stderrors.Is(kind, signature.ErrMissingHeader):
		return metrics.OutcomeMalformed
	case stderrors.Is(kind, signature.ErrExpired):
		return metrics.OutcomeExpired
	case stderrors.Is(kind, signature.ErrReplayed):
		return metrics.OutcomeReplayed
	case stderrors.Is(kind, signature.ErrNonceStore):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeMismatch
	}
}
