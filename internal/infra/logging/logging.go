package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"ecommerce-payments/internal/config"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger configured from config.
// Supports "trace" | "debug" | "info" | "warn" | "error" levels
// and "json" | "console" formats. Sampling can be enabled to reduce noise in prod.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, _ := zerolog.ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var base zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" || dev {
		out := formatConsole()
		base = zerolog.New(out).With().Timestamp().Logger()
	} else {
		base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	if cfg.Sampling && !dev {
		// Keep first 100, then 1 every 100 thereafter.
		sampled := base.Sample(&zerolog.BasicSampler{N: 100})
		return &sampled
	}
	return &base
}

func formatConsole() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
}

type ctxKey string

const (
	ctxTraceID     ctxKey = "trace_id"
	ctxOrderNumber ctxKey = "order_number"
	ctxBasketID    ctxKey = "basket_id"
)

// With attaches common context fields such as trace_id, order_number and basket_id.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	l := base.With()
	if v := ctx.Value(ctxTraceID); v != nil {
		l = l.Str("trace_id", v.(string))
	}
	if v := ctx.Value(ctxOrderNumber); v != nil {
		l = l.Str("order_number", v.(string))
	}
	if v := ctx.Value(ctxBasketID); v != nil {
		l = l.Str("basket_id", v.(string))
	}
	logger := l.Logger()
	return &logger
}

// Redact hides payment tokens and other secrets; keep a short preview.
func Redact(s string, dev bool) string {
	if dev {
		return s
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-2:]
}

// Helpers to put IDs into context.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTraceID, id)
}
func WithOrderNumber(ctx context.Context, number string) context.Context {
	return context.WithValue(ctx, ctxOrderNumber, number)
}
func WithBasketID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxBasketID, id)
}
