package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zeromicro/go-zero/core/logx"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logx.SetWriter(logx.NewWriter(&buf))
	t.Cleanup(func() {
		logx.Reset()
	})
	return &buf
}

func TestWithContext(t *testing.T) {
	buf := captureLogs(t)

	ctx := ContextWithFields(context.Background(), logx.Field("traceId", "trace-1"), logx.Field("uri", "/api/x"))
	WithContext(ctx).Infof("verified %s", "ok")

	out := buf.String()
	assert.Contains(t, out, `"traceId":"trace-1"`)
	assert.Contains(t, out, `"uri":"/api/x"`)
	assert.Contains(t, out, "verified ok")
}

func TestContextFieldsDoNotLeak(t *testing.T) {
	buf := captureLogs(t)

	ContextWithFields(context.Background(), logx.Field("traceId", "trace-2"))
	WithContext(context.Background()).Info("plain")

	assert.NotContains(t, buf.String(), "trace-2")
}

func TestWithFields(t *testing.T) {
	buf := captureLogs(t)

	WithFields(logx.Field("client", "c1")).Errorf("rejected: %s", "expired")

	assert.Contains(t, buf.String(), `"client":"c1"`)
	assert.Contains(t, buf.String(), "rejected: expired")
}
