// Package logger 构建 shopsense 的 zap 日志：JSON 编码、ISO8601 时间、大写级别，
// 同时输出到 stdout 与按大小滚动的日志文件（lumberjack）。
package logger

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 日志配置；Filename 为空时只输出到 stdout。
type Config struct {
	Level      string `koanf:"level"`
	Filename   string `koanf:"filename"`
	MaxSize    int    `koanf:"max_size"` // MB
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"` // 天
	Compress   bool   `koanf:"compress"`
}

// New 按配置创建 logger
func New(cfg Config) (*zap.Logger, error) {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter 同 New，但 console 输出写到 w（测试用）
func NewWithWriter(cfg Config, w io.Writer) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, err
		}
	}
	c := zapcore.NewCore(encoder(), writer(cfg, w), level)
	return zap.New(c, zap.AddCaller()), nil
}

func encoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

func writer(cfg Config, w io.Writer) zapcore.WriteSyncer {
	console := zapcore.AddSync(w)
	if cfg.Filename == "" {
		return console
	}
	file := &zapcore.BufferedWriteSyncer{
		WS: zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}),
		Size:          256 * 1024,
		FlushInterval: 5 * time.Second,
	}
	return zapcore.NewMultiWriteSyncer(console, file)
}

// OrNop 组件选项里 logger 为 nil 时的兜底
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
