package logger

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
)

// Settings carries the logging knobs consumed at process startup.
type Settings struct {
	Level   string
	Format  string
	Profile string
}

var (
	initOnce   sync.Once
	shutdownMu sync.Mutex
	shutdowned bool

	logWriter *lineWriter
	levelVar  slog.LevelVar

	// L is the base logger shared by all components.
	L *slog.Logger

	// DB logs durable-store events.
	DB *slog.Logger
	// MIG logs database migration events.
	MIG *slog.Logger
	// TG logs Telegram transport events.
	TG *slog.Logger
	// Nav logs menu navigation events.
	Nav *slog.Logger
	// FB logs feedback state-machine events.
	FB *slog.Logger
	// Mail logs notification delivery events.
	Mail *slog.Logger
)

func init() {
	// Components fall back to the default logger until Init runs.
	L = slog.Default()
	wireComponents()
}

// Init configures the global structured logger. Subsequent calls are no-ops.
func Init(s Settings) {
	initOnce.Do(func() {
		levelVar.Set(selectLevel(s.Level))
		logWriter = newLineWriter(os.Stdout)

		handler := newStructuredHandler(handlerConfig{
			level:    &levelVar,
			writer:   logWriter,
			format:   selectFormat(s),
			keyOrder: append([]string(nil), defaultKeyOrder...),
		})

		L = slog.New(handler)
		slog.SetDefault(L)
		wireComponents()

		L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
			slog.String("component", "app"),
			slog.String("event", "startup"),
			slog.String("go_version", runtime.Version()),
		)
	})
}

func wireComponents() {
	DB = Component("db")
	MIG = Component("db.migrate")
	TG = Component("tg")
	Nav = Component("nav")
	FB = Component("feedback")
	Mail = Component("mail")
}

// Shutdown flushes buffered log output.
func Shutdown() error {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if shutdowned || logWriter == nil {
		return nil
	}
	shutdowned = true
	return logWriter.Flush()
}

// Component returns a logger bound to the given component name.
func Component(name string) *slog.Logger {
	if L == nil {
		return slog.Default()
	}
	return L.With("component", name)
}

// Background returns a fresh context for log correlation chains.
func Background() context.Context {
	return context.Background()
}

func selectLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

func selectFormat(s Settings) logFormat {
	switch strings.ToLower(strings.TrimSpace(s.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	if strings.EqualFold(s.Profile, "debug") || strings.EqualFold(s.Profile, "dev") {
		return formatKV
	}
	return formatJSON
}
