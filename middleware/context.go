package middleware

import (
	"signature-gateway/model"
	"signature-gateway/pkg/signature"

	"github.com/gin-gonic/gin"
)

// HeaderTraceID 请求链路 ID
const HeaderTraceID = "X-Trace-Id"

// gin.Context keys shared by the middleware chain and handlers
const (
	ContextKeyTraceID  = "trace_id"
	ContextKeyClientID = "client_id"
	ContextKeyClient   = "client"
	ContextKeyResult   = "signature_result"
	// 已在客户存储中找到的 client id，签名未通过时同样设置
	ContextKeyKnownClientID = "known_client_id"
)

// ClientFromContext returns the verified client, if any
func ClientFromContext(c *gin.Context) (*model.Client, bool) {
	v, exists := c.Get(ContextKeyClient)
	if !exists {
		return nil, false
	}
	client, ok := v.(*model.Client)
	return client, ok && client != nil
}

// ResultFromContext returns the verification result, if verification ran
func ResultFromContext(c *gin.Context) (signature.Result, bool) {
	v, exists := c.Get(ContextKeyResult)
	if !exists {
		return signature.Result{}, false
	}
	res, ok := v.(signature.Result)
	return res, ok
}
