package logger

import (
	"context"
	"fmt"
	"log/slog"
)

type contextKey string

const (
	ctxRID      contextKey = "rid"
	ctxUpdateID contextKey = "update_id"
	ctxUserID   contextKey = "user_id"
	ctxChatID   contextKey = "chat_id"
	ctxHandler  contextKey = "handler"
)

// WithRID attaches a request correlation id to the context.
func WithRID(ctx context.Context, rid string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRID, rid)
}

// RIDFrom extracts the correlation id from the context if present.
func RIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(ctxRID).(string); ok {
		return s
	}
	return ""
}

// WithUpdateMeta attaches common update identifiers to the context.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUpdateID, updateID)
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxChatID, chatID)
}

// WithHandler stores the handler name in the context for downstream logs.
func WithHandler(ctx context.Context, handler string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if handler == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxHandler, handler)
}

// ChatIDFrom extracts the chat id from the context.
func ChatIDFrom(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if id, ok := ctx.Value(ctxChatID).(int64); ok {
		return id
	}
	return 0
}

// BuildRID returns a correlation identifier in the format updateID:chatID:userID.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

func addContextFields(ctx context.Context, fields map[string]any) {
	if ctx == nil {
		return
	}
	if rid := RIDFrom(ctx); rid != "" {
		if _, seen := fields["rid"]; !seen {
			fields["rid"] = rid
		}
	}
	if v, ok := ctx.Value(ctxUpdateID).(int); ok && v != 0 {
		if _, seen := fields["update_id"]; !seen {
			fields["update_id"] = int64(v)
		}
	}
	if v, ok := ctx.Value(ctxUserID).(int64); ok && v != 0 {
		if _, seen := fields["user_id"]; !seen {
			fields["user_id"] = v
		}
	}
	if v, ok := ctx.Value(ctxChatID).(int64); ok && v != 0 {
		if _, seen := fields["chat_id"]; !seen {
			fields["chat_id"] = v
		}
	}
	if v, ok := ctx.Value(ctxHandler).(string); ok && v != "" {
		if _, seen := fields["handler"]; !seen {
			fields["handler"] = v
		}
	}
}

// LogEvent emits a record on the provided logger with context enrichment.
func LogEvent(ctx context.Context, log *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if log == nil {
		log = slog.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	log.LogAttrs(ctx, level, event, attrs...)
}

// Debug logs a debug event on the given component logger.
func Debug(ctx context.Context, log *slog.Logger, event string, attrs ...slog.Attr) {
	LogEvent(ctx, log, slog.LevelDebug, event, attrs...)
}

// Info logs an info event on the given component logger.
func Info(ctx context.Context, log *slog.Logger, event string, attrs ...slog.Attr) {
	LogEvent(ctx, log, slog.LevelInfo, event, attrs...)
}

// Warn logs a warning event on the given component logger.
func Warn(ctx context.Context, log *slog.Logger, event string, attrs ...slog.Attr) {
	LogEvent(ctx, log, slog.LevelWarn, event, attrs...)
}

// Error logs an error event on the given component logger.
func Error(ctx context.Context, log *slog.Logger, event string, attrs ...slog.Attr) {
	LogEvent(ctx, log, slog.LevelError, event, attrs...)
}
