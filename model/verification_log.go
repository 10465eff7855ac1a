package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VerificationLog 一次签名校验及其转发结果
type VerificationLog struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ClientID  string             `json:"client_id" bson:"client_id"`
	TraceID   string             `json:"trace_id" bson:"trace_id"`
	Method    string             `json:"method" bson:"method"`
	Path      string             `json:"path" bson:"path"`
	Verified  bool               `json:"verified" bson:"verified"`
	Errors    []string           `json:"errors,omitempty" bson:"errors,omitempty"` // 校验失败原因
	Status    int                `json:"status" bson:"status"`                     // HTTP状态码
	Duration  int64              `json:"duration" bson:"duration"`                 // 响应时间(ms)
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// NewVerificationLog creates a new verification log entry
func NewVerificationLog(clientID, traceID, method, path string, verified bool, errs []string, status int, duration int64) *VerificationLog {
	return &VerificationLog{
		ClientID:  clientID,
		TraceID:   traceID,
		Method:    method,
		Path:      path,
		Verified:  verified,
		Errors:    errs,
		Status:    status,
		Duration:  duration,
		CreatedAt: time.Now(),
	}
}
