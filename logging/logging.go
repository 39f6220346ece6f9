// Package logging 基于 log/slog 配置结构化日志。
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup 按级别与格式创建 logger 并设置为全局默认，w 为 nil 时输出到 stderr。
//
// Level: "debug", "info", "warn", "error"（默认 info）
// Format: "text", "json"（默认 text）
func Setup(level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel 将字符串转为 slog.Level，无法识别时为 info。
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard 返回丢弃所有输出的 logger，用于测试。
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
