package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"signature-gateway/pkg/logger"
	"signature-gateway/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type PrometheusMiddleware struct {
	metrics *metrics.GatewayMetrics
}

func NewPrometheusMiddleware() *PrometheusMiddleware {
	return &PrometheusMiddleware{
		metrics: metrics.GetMetrics(),
	}
}

func (m *PrometheusMiddleware) Monitor() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		m.metrics.RequestsInFlight.Inc()
		defer m.metrics.RequestsInFlight.Dec()

		// 使用自定义 ResponseWriter 来捕获响应大小
		writer := &responseWriter{
			ResponseWriter: c.Writer,
			statusCode:     http.StatusOK,
		}
		c.Writer = writer

		c.Next()

		// 客户信息由 Verify 写入，需在处理完成后读取
		clientLabel := m.getClientLabel(c)

		if c.Request.ContentLength > 0 {
			m.metrics.RequestSize.WithLabelValues(clientLabel).Observe(float64(c.Request.ContentLength))
		}

		duration := time.Since(startTime).Milliseconds()
		statusCode := strconv.Itoa(writer.statusCode)

		m.metrics.RequestsTotal.WithLabelValues(clientLabel, statusCode).Inc()
		m.metrics.RequestDuration.WithLabelValues(clientLabel).Observe(float64(duration))
		m.metrics.ResponseSize.WithLabelValues(clientLabel, statusCode).Observe(float64(writer.bodySize))

		if writer.statusCode == http.StatusGatewayTimeout {
			m.metrics.RequestTimeouts.WithLabelValues(clientLabel).Inc()
		}

		if writer.statusCode >= http.StatusInternalServerError {
			m.metrics.RequestErrors.WithLabelValues(clientLabel, m.getErrorType(writer.statusCode)).Inc()
		}

		logger.Debugf("Prometheus metrics recorded: client=%s, status=%d, duration=%dms, size=%d bytes",
			clientLabel, writer.statusCode, duration, writer.bodySize)
	}
}

// responseWriter 自定义 ResponseWriter，用于捕获响应大小和状态码
type responseWriter struct {
	gin.ResponseWriter
	statusCode int
	bodySize   int
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bodySize += n
	return n, err
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	n, err := w.ResponseWriter.WriteString(s)
	w.bodySize += n
	return n, err
}

func (m *PrometheusMiddleware) getClientLabel(c *gin.Context) string {
	client, ok := ClientFromContext(c)
	if !ok {
		return "unverified"
	}
	return fmt.Sprintf("%s-%s", client.Name, client.Version)
}

func (m *PrometheusMiddleware) getErrorType(statusCode int) string {
	switch statusCode {
	case http.StatusInternalServerError:
		return "internal_error"
	case http.StatusBadGateway:
		return "bad_gateway"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	case http.StatusGatewayTimeout:
		return "gateway_timeout"
	default:
		return fmt.Sprintf("http_%d", statusCode)
	}
}
