package generator

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler 静默丢弃所有日志记录。Enabled 返回 false，调用方可以完全跳过
// 消息格式化，关闭日志时接近零开销。
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := slog.New(nopHandler{})
	loggerPtr.Store(l)
}

// SetLogger 配置生成器的日志输出。默认不输出任何日志；传 nil 恢复静默。
// 可与任意 goroutine 的日志调用并发使用。
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger 返回当前生效的日志器。
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
