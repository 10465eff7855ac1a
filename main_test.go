package main

import (
	"testing"

	"signature-gateway/config"

	"github.com/stretchr/testify/assert"
)

func TestLogConfig(t *testing.T) {
	tests := []struct {
		driver       string
		wantMode     string
		wantRotation string
	}{
		{"console", "console", "daily"},
		{"single", "file", "size"},
		{"daily", "file", "daily"},
		{"mongodb", "console", "daily"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			lc := logConfig(config.LogConfig{Driver: tt.driver, Path: "/var/log/gw", Level: "debug", Format: "plain", KeepDays: 7})
			assert.Equal(t, tt.wantMode, lc.Mode)
			assert.Equal(t, tt.wantRotation, lc.Rotation)
			assert.Equal(t, "debug", lc.Level)
			assert.Equal(t, "plain", lc.Encoding)
			assert.Equal(t, 7, lc.KeepDays)
			assert.Equal(t, serviceName, lc.ServiceName)
		})
	}
}
