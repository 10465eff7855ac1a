package router

import (
	"net/http"

	"signature-gateway/config"
	"signature-gateway/database"
	"signature-gateway/handler"
	"signature-gateway/middleware"
	"signature-gateway/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 组装网关路由。返回的 stop 用于关闭时释放中间件的后台协程
func SetupRouter(cfg *config.Config, dm *database.DatabaseManager) (r *gin.Engine, stop func(), err error) {
	r = gin.Default()
	stop = func() {}

	clientService := service.NewClientService(dm.ClientRepo, dm.VerificationLogRepo)
	signatureService, err := service.NewSignatureService(dm.ClientRepo, cfg.Signature, dm.NonceStore)
	if err != nil {
		return nil, nil, err
	}

	proxyHandler, err := handler.NewProxyHandler(cfg.Targets)
	if err != nil {
		return nil, nil, err
	}
	adminHandler := handler.NewAdminHandler(clientService)

	prometheusMiddleware := middleware.NewPrometheusMiddleware()
	loggingMiddleware := middleware.NewLoggingMiddleware(clientService)
	signatureMiddleware := middleware.NewSignatureMiddleware(signatureService)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":            "ok",
				"service":           "signature-gateway",
				"replay_protection": cfg.Signature.ReplayProtection,
				"storage":           dm.Stats(),
			})
		})

		// 日志中间件需在签名校验之前，被拒绝的请求同样会记录
		proxy := api.Group("/proxy")
		proxy.Use(middleware.Trace())
		proxy.Use(prometheusMiddleware.Monitor())
		proxy.Use(loggingMiddleware.LogVerification())
		if cfg.Signature.FailureLimit > 0 {
			rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.Signature.FailureLimit)
			stop = rateLimitMiddleware.Stop
			proxy.Use(rateLimitMiddleware.LimitFailures())
		}
		proxy.Use(signatureMiddleware.Verify())

		proxy.Any("/*path", proxyHandler.ProxyRequest)
	}

	admin := r.Group("/admin")
	admin.Use(middleware.Trace())
	{
		admin.POST("/clients", adminHandler.CreateClient)
		admin.GET("/clients", adminHandler.ListClients)
		admin.GET("/clients/:id", adminHandler.GetClient)
		admin.DELETE("/clients/:id", adminHandler.DeleteClient)
		admin.PUT("/clients/:id/status", adminHandler.UpdateClientStatus)

		admin.GET("/clients/:id/logs", adminHandler.GetClientVerificationLogs)
		admin.GET("/stats", adminHandler.GetStats)
	}

	return r, stop, nil
}
