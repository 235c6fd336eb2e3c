package logger

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/autumnsgrove/cdnup/internal/batchctx"
)

var std *slog.Logger

// --- handler that appends the batch id as an attribute (at the end in TextHandler) ---

type batchAttrHandler struct{ h slog.Handler }

func (b batchAttrHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return b.h.Enabled(ctx, lvl)
}

func (b batchAttrHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := batchctx.BatchIDFromContext(ctx); ok {
		r.AddAttrs(slog.String("batch", id.String()))
	}
	return b.h.Handle(ctx, r)
}

func (b batchAttrHandler) WithAttrs(a []slog.Attr) slog.Handler {
	return batchAttrHandler{h: b.h.WithAttrs(a)}
}
func (b batchAttrHandler) WithGroup(n string) slog.Handler {
	return batchAttrHandler{h: b.h.WithGroup(n)}
}

// --- public API ---

// Init
// ENV:
//
//	LOG_FORMAT    json|text (default: text)
//	LOG_LEVEL     debug|info|warn|error (default: warn)
//	LOG_SOURCE    true|false (default: false)
func Init() {
	level := parseLevel(getEnv("LOG_LEVEL", "warn"))
	addSource := parseBool(getEnv("LOG_SOURCE", "false"))
	format := strings.ToLower(getEnv("LOG_FORMAT", "text"))

	opts := &slog.HandlerOptions{Level: level, AddSource: addSource}

	var base slog.Handler
	if format == "json" {
		base = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		base = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(batchAttrHandler{h: base}).With("svc", "cdnup")

	std = logger
	slog.SetDefault(std)

	// Keep legacy log.Printf visible (no ctx → no batch id).
	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(base, slog.LevelInfo).Writer())
}

// --- small helpers ---

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) slog.Leveler {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func activeLogger() *slog.Logger {
	if std != nil {
		return std
	}
	return slog.Default()
}

// --- convenience wrappers ---

func Info(ctx context.Context, msg string, attrs ...any) {
	activeLogger().InfoContext(ctx, msg, attrs...)
}
func Warn(ctx context.Context, msg string, attrs ...any) {
	activeLogger().WarnContext(ctx, msg, attrs...)
}
func Error(ctx context.Context, msg string, attrs ...any) {
	activeLogger().ErrorContext(ctx, msg, attrs...)
}
func Debug(ctx context.Context, msg string, attrs ...any) {
	activeLogger().DebugContext(ctx, msg, attrs...)
}

func Infof(ctx context.Context, format string, a ...any) {
	activeLogger().InfoContext(ctx, fmt.Sprintf(format, a...))
}
func Errorf(ctx context.Context, format string, a ...any) {
	activeLogger().ErrorContext(ctx, fmt.Sprintf(format, a...))
}
func Warnf(ctx context.Context, format string, a ...any) {
	activeLogger().WarnContext(ctx, fmt.Sprintf(format, a...))
}
func Debugf(ctx context.Context, format string, a ...any) {
	activeLogger().DebugContext(ctx, fmt.Sprintf(format, a...))
}
