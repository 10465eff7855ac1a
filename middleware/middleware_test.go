package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"signature-gateway/config"
	"signature-gateway/errors"
	"signature-gateway/model"
	"signature-gateway/pkg/nonce"
	"signature-gateway/pkg/signature"
	"signature-gateway/repository"
	"signature-gateway/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testGateway struct {
	engine     *gin.Engine
	clients    *service.ClientService
	signatures *service.SignatureService
	logs       *repository.VerificationLogMemoryRepository
	client     *model.Client
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clientRepo := repository.NewClientMemoryRepository()
	logRepo := repository.NewVerificationLogMemoryRepository()
	clients := service.NewClientService(clientRepo, logRepo)

	client, err := clients.CreateClient(context.Background(), "acme", "v1", "")
	require.NoError(t, err)

	store, err := nonce.NewMemoryStore(time.Minute)
	require.NoError(t, err)
	signatures, err := service.NewSignatureService(clientRepo, config.SignatureConfig{Algorithm: "sha256", TimeWindow: 60}, store)
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(Trace(), NewPrometheusMiddleware().Monitor())
	engine.Use(NewLoggingMiddleware(clients).LogVerification(), NewSignatureMiddleware(signatures).Verify())
	engine.POST("/api/echo", func(c *gin.Context) {
		client, ok := ClientFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.JSON(http.StatusOK, gin.H{"client": client.ClientID, "body": body})
	})

	return &testGateway{engine: engine, clients: clients, signatures: signatures, logs: logRepo, client: client}
}

func (g *testGateway) signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	var payload signature.Payload
	require.NoError(t, json.Unmarshal([]byte(body), &payload))

	env, err := signature.NewService(g.client.Secret).Generate(payload)
	require.NoError(t, err)
	env.ClientID = g.client.ClientID

	req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	env.Apply(req.Header)
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errors.APIError {
	t.Helper()
	var apiErr errors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}

func TestVerifyAcceptsSignedRequest(t *testing.T) {
	g := newTestGateway(t)

	w := httptest.NewRecorder()
	g.engine.ServeHTTP(w, g.signedRequest(t, `{"order":"42","items":["a","b"]}`))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), g.client.ClientID)
	assert.Contains(t, w.Body.String(), `"order":"42"`, "body must be readable after verification")
	assert.NotEmpty(t, w.Header().Get(HeaderTraceID))

	assert.Eventually(t, func() bool {
		logs, _ := g.logs.GetByClientID(context.Background(), g.client.ClientID, 0, 10)
		return len(logs) == 1 && logs[0].Verified && logs[0].Status == http.StatusOK
	}, time.Second, 10*time.Millisecond)
}

func TestVerifyRejections(t *testing.T) {
	g := newTestGateway(t)

	tests := []struct {
		name   string
		mutate func(req *http.Request)
		status int
		code   int
	}{
		{
			name:   "no headers",
			mutate: func(req *http.Request) { req.Header = http.Header{"Content-Type": {"application/json"}} },
			status: http.StatusUnauthorized,
			code:   errors.ErrSignatureConfig,
		},
		{
			name:   "unknown client",
			mutate: func(req *http.Request) { req.Header.Set(signature.HeaderClientID, "nobody") },
			status: http.StatusUnauthorized,
			code:   errors.ErrSignatureConfig,
		},
		{
			name:   "missing nonce",
			mutate: func(req *http.Request) { req.Header.Del(signature.HeaderNonce) },
			status: http.StatusUnauthorized,
			code:   errors.ErrSignatureMalformed,
		},
		{
			name:   "expired",
			mutate: func(req *http.Request) { req.Header.Set(signature.HeaderTimestamp, "1000") },
			status: http.StatusUnauthorized,
			code:   errors.ErrSignatureExpired,
		},
		{
			name:   "tampered signature",
			mutate: func(req *http.Request) { req.Header.Set(signature.HeaderSignature, "AAAA") },
			status: http.StatusUnauthorized,
			code:   errors.ErrSignatureMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := g.signedRequest(t, `{"order":"42"}`)
			tt.mutate(req)

			w := httptest.NewRecorder()
			g.engine.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			apiErr := decodeError(t, w)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.NotEmpty(t, apiErr.Errors)
			assert.NotContains(t, w.Body.String(), g.client.Secret)
		})
	}
}

func TestVerifyTamperedBody(t *testing.T) {
	g := newTestGateway(t)
	req := g.signedRequest(t, `{"order":"42"}`)
	tampered := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader(`{"order":"43"}`))
	tampered.Header = req.Header

	w := httptest.NewRecorder()
	g.engine.ServeHTTP(w, tampered)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errors.ErrSignatureMismatch, decodeError(t, w).Code)
}

func TestVerifyRejectsReplay(t *testing.T) {
	g := newTestGateway(t)
	req := g.signedRequest(t, `{"order":"42"}`)

	w := httptest.NewRecorder()
	g.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	replay := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader(`{"order":"42"}`))
	replay.Header = req.Header.Clone()
	w = httptest.NewRecorder()
	g.engine.ServeHTTP(w, replay)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errors.ErrSignatureReplayed, decodeError(t, w).Code)
}

func TestVerifyDisabledClient(t *testing.T) {
	g := newTestGateway(t)
	require.NoError(t, g.clients.UpdateClientStatus(context.Background(), g.client.ID, model.ClientStatusDisabled))

	w := httptest.NewRecorder()
	g.engine.ServeHTTP(w, g.signedRequest(t, `{"order":"42"}`))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, errors.ErrClientDisabled, decodeError(t, w).Code)
}

func TestVerifyUnsupportedPayload(t *testing.T) {
	g := newTestGateway(t)
	req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader("<xml/>"))
	req.Header.Set("Content-Type", "text/xml")

	w := httptest.NewRecorder()
	g.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrInvalidPayload, decodeError(t, w).Code)
}

func TestVerifyThroughSigningTransport(t *testing.T) {
	g := newTestGateway(t)
	server := httptest.NewServer(g.engine)
	defer server.Close()

	httpClient := &http.Client{Transport: signature.NewTransport(nil, g.client.Credential())}
	resp, err := httpClient.Post(server.URL+"/api/echo", "application/json", strings.NewReader(`{"order":"42"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTracePropagatesIncomingID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Trace())
	engine.GET("/trace", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextKeyTraceID))
	})

	req := httptest.NewRequest(http.MethodGet, "/trace", nil)
	req.Header.Set(HeaderTraceID, "trace-123")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Body.String())
	assert.Equal(t, "trace-123", w.Header().Get(HeaderTraceID))

	req = httptest.NewRequest(http.MethodGet, "/trace", nil)
	req.Header.Set(HeaderTraceID, strings.Repeat("x", maxTraceIDLength+1))
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.NotEqual(t, strings.Repeat("x", maxTraceIDLength+1), w.Body.String())
	assert.NotEmpty(t, w.Body.String())
}
