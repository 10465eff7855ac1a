package logger

import (
	"context"
	"sync"

	"github.com/zeromicro/go-zero/core/logx"
)

// Logger 包装了go-zero的logx，提供统一的日志接口
type Logger struct {
	logger logx.Logger
}

// New 创建一个新的Logger实例，设置调用栈跳过层数
func New() *Logger {
	return &Logger{
		logger: logx.WithCallerSkip(2), // 跳过logger包装器和全局函数调用
	}
}

// Info 记录信息级别日志
func (l *Logger) Info(v ...any) {
	l.logger.Info(v...)
}

// Infof 记录格式化的信息级别日志
func (l *Logger) Infof(format string, v ...any) {
	l.logger.Infof(format, v...)
}

// Infow 记录带字段的信息级别日志
func (l *Logger) Infow(msg string, fields ...logx.LogField) {
	l.logger.Infow(msg, fields...)
}

// Error 记录错误级别日志
func (l *Logger) Error(v ...any) {
	l.logger.Error(v...)
}

// Errorf 记录格式化的错误级别日志
func (l *Logger) Errorf(format string, v ...any) {
	l.logger.Errorf(format, v...)
}

// Errorw 记录带字段的错误级别日志
func (l *Logger) Errorw(msg string, fields ...logx.LogField) {
	l.logger.Errorw(msg, fields...)
}

// Debugf 记录格式化的调试级别日志
func (l *Logger) Debugf(format string, v ...any) {
	l.logger.Debugf(format, v...)
}

// WithFields 创建带字段的logger
func (l *Logger) WithFields(fields ...logx.LogField) *Logger {
	return &Logger{
		logger: l.logger.WithFields(fields...),
	}
}

// 全局logger实例
var (
	defaultLogger = New()
	once          sync.Once
)

// Config 日志配置
type Config struct {
	ServiceName string
	Mode        string // console, file, volume
	Path        string // file/volume 模式下的日志目录
	Level       string // debug, info, error, severe
	Encoding    string // json, plain
	Rotation    string // daily, size
	KeepDays    int
}

// DefaultConfig 返回默认配置
func DefaultConfig(serviceName string) Config {
	return Config{
		ServiceName: serviceName,
		Mode:        "console",
		Level:       "info",
		Encoding:    "json",
		Rotation:    "daily",
	}
}

// Init 初始化日志系统
func Init(serviceName string) {
	InitWithConfig(DefaultConfig(serviceName))
}

// InitWithConfig 使用自定义配置初始化日志系统，只生效一次
func InitWithConfig(config Config) {
	once.Do(func() {
		logx.MustSetup(logx.LogConf{
			ServiceName: config.ServiceName,
			Mode:        config.Mode,
			Path:        config.Path,
			Level:       config.Level,
			Encoding:    config.Encoding,
			Rotation:    config.Rotation,
			KeepDays:    config.KeepDays,
		})

		defaultLogger = New()
	})
}

// SetWriter 替换日志输出，如 MongoWriter
func SetWriter(w logx.Writer) {
	logx.SetWriter(w)
}

// Close 关闭日志系统，同时关闭当前的 Writer
func Close() {
	logx.Close()
}

// ContextWithFields 将字段绑定到请求上下文，之后通过 WithContext 输出的日志都会带上这些字段
func ContextWithFields(ctx context.Context, fields ...logx.LogField) context.Context {
	return logx.ContextWithFields(ctx, fields...)
}

// WithContext 返回携带上下文字段（traceId、uri）的logger
func WithContext(ctx context.Context) *Logger {
	return &Logger{
		logger: logx.WithContext(ctx).WithCallerSkip(1),
	}
}

// 全局函数，使用默认logger
func Info(v ...any) {
	defaultLogger.Info(v...)
}

func Infof(format string, v ...any) {
	defaultLogger.Infof(format, v...)
}

func Infow(msg string, fields ...logx.LogField) {
	defaultLogger.Infow(msg, fields...)
}

func Error(v ...any) {
	defaultLogger.Error(v...)
}

func Errorf(format string, v ...any) {
	defaultLogger.Errorf(format, v...)
}

func Errorw(msg string, fields ...logx.LogField) {
	defaultLogger.Errorw(msg, fields...)
}

func Debugf(format string, v ...any) {
	defaultLogger.Debugf(format, v...)
}

func WithFields(fields ...logx.LogField) *Logger {
	return defaultLogger.WithFields(fields...)
}
