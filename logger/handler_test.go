package logger

import (
	"bytes"
	"strings"
	"testing"

	"log/slog"
)

func newTestHandler(buf *bytes.Buffer, format logFormat) *structuredHandler {
	return newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   newLineWriter(buf),
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newTestHandler(buf, formatKV)).With("component", "nav")

	ctx := WithRID(Background(), "42:7:9")
	ctx = WithUpdateMeta(ctx, 42, 9, 7)
	LogEvent(ctx, log, slog.LevelInfo, "node.enter",
		slog.String("status", "ok"),
		slog.Int64("node_id", 3),
	)

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log line")
	}
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=nav", "event=node.enter", "status=ok", "rid=42:7:9"}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
	if !strings.Contains(line, "node_id=3") {
		t.Fatalf("expected node_id in %s", line)
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newTestHandler(buf, formatJSON)).With("component", "feedback")

	LogEvent(Background(), log, slog.LevelError, "notify.fail",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
	)

	line := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	pos := -1
	for _, pref := range []string{`{"ts":`, `"level":"ERROR"`, `"component":"feedback"`, `"event":"notify.fail"`, `"status":"fail"`} {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerPrunesEmptyStrings(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newTestHandler(buf, formatKV))

	LogEvent(Background(), log, slog.LevelInfo, "event.test",
		slog.String("payload", ""),
	)

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "payload=") {
		t.Fatalf("empty payload should be pruned, got %s", line)
	}
}

func TestStructuredHandlerDurationNormalized(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newTestHandler(buf, formatKV))

	LogEvent(Background(), log, slog.LevelInfo, "event.test",
		slog.Duration("duration", 1500000), // 1.5ms
	)

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "duration_ms=2") {
		t.Fatalf("expected rounded duration_ms, got %s", line)
	}
}

func TestComponentBindsName(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := L
	L = slog.New(newTestHandler(buf, formatKV))
	defer func() { L = prev }()

	log := Component("mail")
	LogEvent(Background(), log, slog.LevelInfo, "send.ok")

	if !strings.Contains(buf.String(), "component=mail") {
		t.Fatalf("expected component attr in %q", buf.String())
	}
}

func TestSanitizeLimit(t *testing.T) {
	in := "abc\x00def\x7f"
	if got := Sanitize(in); got != "abcdef" {
		t.Fatalf("Sanitize(%q) = %q", in, got)
	}
	if got := SanitizeLimit("привет мир", 6); got != "привет" {
		t.Fatalf("SanitizeLimit rune cut failed: %q", got)
	}
}
