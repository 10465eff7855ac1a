package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/zeromicro/go-zero/core/executors"
	"github.com/zeromicro/go-zero/core/logx"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoWriteTimeout = 3 * time.Second
	mongoBulkTasks    = 200
	mongoBulkInterval = time.Second
)

// LogEntry 写入 MongoDB 的日志文档
type LogEntry struct {
	Timestamp time.Time      `bson:"@timestamp"`
	Level     string         `bson:"level"`
	Content   string         `bson:"content"`
	TraceID   string         `bson:"traceId,omitempty"`
	URI       string         `bson:"uri,omitempty"`
	Fields    map[string]any `bson:"fields,omitempty"`
}

// *mongo.Collection 满足该接口
type documentInserter interface {
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// MongoWriter 实现 logx.Writer，把日志写入 MongoDB 集合。
// 开启 buffer 时按批写入，否则每条日志同步写入
type MongoWriter struct {
	inserter documentInserter
	bulk     *executors.BulkExecutor
	fallback logx.Writer // 写入失败时输出到 stderr
	now      func() time.Time
}

// NewMongoWriter 创建 MongoDB 日志写入器
func NewMongoWriter(collection *mongo.Collection, buffer bool) *MongoWriter {
	return newMongoWriter(collection, buffer)
}

func newMongoWriter(inserter documentInserter, buffer bool) *MongoWriter {
	w := &MongoWriter{
		inserter: inserter,
		fallback: logx.NewWriter(os.Stderr),
		now:      time.Now,
	}
	if buffer {
		w.bulk = executors.NewBulkExecutor(w.insert,
			executors.WithBulkTasks(mongoBulkTasks),
			executors.WithBulkInterval(mongoBulkInterval),
		)
	}
	return w
}

func (w *MongoWriter) Alert(v any) {
	w.write("alert", v, nil)
}

// Close 写出缓冲中的日志，MongoDB 连接由调用方关闭
func (w *MongoWriter) Close() error {
	if w.bulk != nil {
		w.bulk.Wait()
	}
	return nil
}

func (w *MongoWriter) Debug(v any, fields ...logx.LogField) {
	w.write("debug", v, fields)
}

func (w *MongoWriter) Error(v any, fields ...logx.LogField) {
	w.write("error", v, fields)
}

func (w *MongoWriter) Info(v any, fields ...logx.LogField) {
	w.write("info", v, fields)
}

func (w *MongoWriter) Severe(v any) {
	w.write("severe", v, nil)
}

func (w *MongoWriter) Slow(v any, fields ...logx.LogField) {
	w.write("slow", v, fields)
}

func (w *MongoWriter) Stack(v any) {
	w.write("stack", v, nil)
}

func (w *MongoWriter) Stat(v any, fields ...logx.LogField) {
	w.write("stat", v, fields)
}

func (w *MongoWriter) write(level string, v any, fields []logx.LogField) {
	entry := w.entry(level, v, fields)
	if w.bulk != nil {
		_ = w.bulk.Add(entry)
		return
	}
	w.insert([]any{entry})
}

func (w *MongoWriter) entry(level string, v any, fields []logx.LogField) LogEntry {
	entry := LogEntry{
		Timestamp: w.now(),
		Level:     level,
		Content:   fmt.Sprint(v),
	}

	for _, field := range fields {
		switch field.Key {
		case "traceId":
			entry.TraceID = fmt.Sprint(field.Value)
		case "uri":
			entry.URI = fmt.Sprint(field.Value)
		default:
			if entry.Fields == nil {
				entry.Fields = make(map[string]any, len(fields))
			}
			entry.Fields[field.Key] = bsonValue(field.Value)
		}
	}
	return entry
}

func (w *MongoWriter) insert(tasks []any) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoWriteTimeout)
	defer cancel()

	if _, err := w.inserter.InsertMany(ctx, tasks); err != nil {
		w.fallback.Error(fmt.Sprintf("failed to write %d log entries to MongoDB: %v", len(tasks), err))
		for _, task := range tasks {
			if entry, ok := task.(LogEntry); ok {
				w.fallback.Info(entry.Content, logx.Field("level", entry.Level),
					logx.Field("traceId", entry.TraceID), logx.Field("uri", entry.URI))
			}
		}
	}
}

// bsonValue 只保留可直接编码的基础类型，其余转成字符串
func bsonValue(v any) any {
	switch val := v.(type) {
	case nil, string, []string, bool, int, int32, int64, uint32, float32, float64, time.Time, time.Duration:
		return val
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
