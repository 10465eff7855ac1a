package handler

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"signature-gateway/config"
	"signature-gateway/errors"
	"signature-gateway/middleware"
	"signature-gateway/pkg/logger"
	"signature-gateway/pkg/metrics"
	"signature-gateway/pkg/signature"

	"github.com/gin-gonic/gin"
)

const defaultUpstreamTimeout = 30 * time.Second

// upstream 单个上游服务及其 HTTP 客户端
type upstream struct {
	url     string
	timeout time.Duration
	client  *http.Client
	signed  bool
}

// ProxyHandler 代理处理器
type ProxyHandler struct {
	upstreams map[string]*upstream
	metrics   *metrics.GatewayMetrics
}

// NewProxyHandler 创建代理处理器。配置了 client_id/secret_key 的上游，
// 转发的请求会用该凭证重新签名
func NewProxyHandler(targets map[string]config.TargetConfig) (*ProxyHandler, error) {
	upstreams := make(map[string]*upstream, len(targets))
	for version, target := range targets {
		u := &upstream{
			url:     strings.TrimRight(target.URL, "/"),
			timeout: time.Duration(target.Timeout) * time.Millisecond,
			client:  &http.Client{},
		}
		if u.timeout <= 0 {
			u.timeout = defaultUpstreamTimeout
		}

		if target.ClientID != "" {
			alg, err := signature.ParseAlgorithm(target.Algorithm)
			if err != nil {
				return nil, fmt.Errorf("target %s: %w", version, err)
			}
			credential := signature.Credential{ClientID: target.ClientID, SecretKey: target.SecretKey}
			u.client.Transport = signature.NewTransport(nil, credential, signature.WithAlgorithm(alg))
			u.signed = true
		}
		upstreams[version] = u
	}

	return &ProxyHandler{
		upstreams: upstreams,
		metrics:   metrics.GetMetrics(),
	}, nil
}

// ProxyRequest 代理请求处理
func (p *ProxyHandler) ProxyRequest(c *gin.Context) {
	log := logger.WithContext(c.Request.Context())

	client, ok := middleware.ClientFromContext(c)
	if !ok {
		errors.RespondWithError(c, http.StatusInternalServerError, errors.NewInternalError())
		return
	}

	target, exists := p.upstreams[client.Version]
	if !exists {
		log.Errorf("No upstream configured for version %s", client.Version)
		errors.RespondWithError(c, http.StatusBadRequest, errors.NewUnsupportedVersionError(client.Version))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), target.timeout)
	defer cancel()

	proxyReq, err := p.createProxyRequest(ctx, c, target.url+c.Param("path"))
	if err != nil {
		log.Errorf("Failed to create proxy request: %v", err)
		errors.RespondWithError(c, http.StatusInternalServerError, errors.NewInternalError())
		return
	}

	if target.signed {
		p.metrics.UpstreamSigned.WithLabelValues(client.Version).Inc()
	}

	log.Infof("Proxying request to %s for client %s", proxyReq.URL.String(), client.ClientID)
	resp, err := target.client.Do(proxyReq)
	if err != nil {
		log.Errorf("Upstream request failed: %v", err)
		p.handleUpstreamError(c, err)
		return
	}
	defer resp.Body.Close()

	log.Infof("Received response from upstream: status %d", resp.StatusCode)
	p.forwardResponse(c, resp)
}

// createProxyRequest 创建代理请求
func (p *ProxyHandler) createProxyRequest(ctx context.Context, c *gin.Context, targetURL string) (*http.Request, error) {
	var bodyBytes []byte
	if c.Request.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, fmt.Errorf("读取请求体失败: %w", err)
		}
		c.Request.Body.Close()
	}

	if c.Request.URL.RawQuery != "" {
		targetURL += "?" + c.Request.URL.RawQuery
	}

	proxyReq, err := http.NewRequestWithContext(ctx, c.Request.Method, targetURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	// 调用方的签名头只对网关有效，不转发给上游
	skipHeaders := map[string]bool{
		"host":           true,
		"content-length": true,
	}
	for _, name := range signature.RequiredHeaders {
		skipHeaders[strings.ToLower(name)] = true
	}

	for name, values := range c.Request.Header {
		if !skipHeaders[strings.ToLower(name)] {
			for _, value := range values {
				proxyReq.Header.Add(name, value)
			}
		}
	}

	proxyReq.Header.Set(middleware.HeaderTraceID, c.GetString(middleware.ContextKeyTraceID))
	proxyReq.Header.Set("User-Agent", "Signature-Gateway/1.0")

	return proxyReq, nil
}

// forwardResponse 转发响应
func (p *ProxyHandler) forwardResponse(c *gin.Context, resp *http.Response) {
	skipHeaders := map[string]bool{
		"Content-Length":    true,
		"Transfer-Encoding": true,
		"Connection":        true,
	}

	for name, values := range resp.Header {
		if !skipHeaders[name] {
			for _, value := range values {
				c.Header(name, value)
			}
		}
	}

	c.Status(resp.StatusCode)

	if p.isStreamingResponse(resp) {
		p.forwardStreamingResponse(c, resp)
	} else {
		p.forwardRegularResponse(c, resp)
	}
}

// isStreamingResponse 检查是否是流式响应
func (p *ProxyHandler) isStreamingResponse(resp *http.Response) bool {
	contentType := resp.Header.Get("Content-Type")
	return strings.Contains(contentType, "text/event-stream")
}

// forwardStreamingResponse 转发流式响应
func (p *ProxyHandler) forwardStreamingResponse(c *gin.Context, resp *http.Response) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		p.forwardRegularResponse(c, resp)
		return
	}

	buffer := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buffer)
		if n > 0 {
			if _, writeErr := c.Writer.Write(buffer[:n]); writeErr != nil {
				// 客户端连接断开
				break
			}
			flusher.Flush()
		}

		if err != nil {
			if err != io.EOF {
				logger.WithContext(c.Request.Context()).Errorf("Error reading streaming response: %v", err)
			}
			break
		}
	}
}

// forwardRegularResponse 转发普通响应
func (p *ProxyHandler) forwardRegularResponse(c *gin.Context, resp *http.Response) {
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		// 客户端可能已断开连接
		return
	}
}

// handleUpstreamError 处理上游服务错误
func (p *ProxyHandler) handleUpstreamError(c *gin.Context, err error) {
	if stderrors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "timeout") {
		errors.RespondWithError(c, http.StatusGatewayTimeout, errors.NewUpstreamTimeoutError())
		return
	}

	if strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "no such host") {
		errors.RespondWithError(c, http.StatusBadGateway, errors.NewUpstreamError("上游服务不可用"))
		return
	}

	errors.RespondWithError(c, http.StatusBadGateway, errors.NewUpstreamError("上游服务错误"))
}
