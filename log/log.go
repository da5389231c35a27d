// Package log configures the slog.Logger values used throughout magichome. Loggers can be constructed at any time with
// ForComponent; they write nowhere until To is called with a real slog.Handler.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
)

const (
	ComponentKey = "component"
	ErrorKey     = "error"
	LightKey     = "light"
)

// Error returns a slog.Attr for the provided error. The key will be ErrorKey.
func Error(e error) slog.Attr {
	return slog.Any(ErrorKey, e)
}

// Light returns a slog.Attr identifying the light a message is about. The key will be LightKey.
func Light(id string) slog.Attr {
	return slog.String(LightKey, id)
}

// indirectHandler forwards records to whatever slog.Handler is currently stored in target. Attributes and groups added
// with WithAttrs and WithGroup are recorded and replayed on the target, so loggers built before To is called keep
// their context.
type indirectHandler struct {
	target *atomic.Pointer[slog.Handler]
	ops    []func(slog.Handler) slog.Handler
}

func (i *indirectHandler) resolve() slog.Handler {
	h := i.target.Load()
	if h == nil {
		return nil
	}

	resolved := *h
	for _, op := range i.ops {
		resolved = op(resolved)
	}

	return resolved
}

func (i *indirectHandler) Enabled(ctx context.Context, level slog.Level) bool {
	h := i.target.Load()
	if h == nil {
		return false
	}

	return (*h).Enabled(ctx, level)
}

func (i *indirectHandler) Handle(ctx context.Context, record slog.Record) error {
	h := i.resolve()
	if h == nil {
		return nil
	}

	return h.Handle(ctx, record)
}

func (i *indirectHandler) with(op func(slog.Handler) slog.Handler) *indirectHandler {
	ops := make([]func(slog.Handler) slog.Handler, len(i.ops), len(i.ops)+1)
	copy(ops, i.ops)

	return &indirectHandler{target: i.target, ops: append(ops, op)}
}

func (i *indirectHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return i.with(func(h slog.Handler) slog.Handler {
		return h.WithAttrs(attrs)
	})
}

func (i *indirectHandler) WithGroup(name string) slog.Handler {
	return i.with(func(h slog.Handler) slog.Handler {
		return h.WithGroup(name)
	})
}

var _ slog.Handler = &indirectHandler{}

var (
	sink = &indirectHandler{target: &atomic.Pointer[slog.Handler]{}}
)

// To updates all slog.Logger objects used internally by magichome to write logs to the provided slog.Handler. By
// default, log values are discarded until To is called at least once. To(nil) discards logs again.
func To(h slog.Handler) {
	if h == nil {
		sink.target.Store(nil)
		return
	}

	sink.target.Store(&h)
}

// ForComponent constructs a slog.Logger for the specified component (which is stored in an attribute with the key
// ComponentKey).
func ForComponent(component string) *slog.Logger {
	return slog.New(sink).With(slog.String(ComponentKey, component))
}

// ParseLevel parses a level name as written in configuration files ("debug", "info", "warn", "error").
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", s, err)
	}

	return level, nil
}
