package logging

import (
	"context"
	"log/slog"
)

// CapturingHandler wraps an slog.Handler, storing every record in a
// LogCollector before passing it on.
//
// Records are captured at every level. They reach the underlying handler only
// if it is enabled for the record's level.
type CapturingHandler struct {
	underlying slog.Handler
	collector  *LogCollector
	component  string
	attrs      []slog.Attr
	groups     []string
}

// NewCapturingHandler creates a CapturingHandler that files records under
// component.
func NewCapturingHandler(underlying slog.Handler, collector *LogCollector, component string) *CapturingHandler {
	return &CapturingHandler{
		underlying: underlying,
		collector:  collector,
		component:  component,
	}
}

// Enabled always returns true so that debug records are captured even when the
// underlying handler drops them.
func (h *CapturingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle captures the record and forwards it to the underlying handler.
func (h *CapturingHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := LogEntry{
		Time:       r.Time,
		Level:      r.Level.String(),
		Message:    r.Message,
		Attributes: make(map[string]any, r.NumAttrs()+len(h.attrs)),
	}
	// Keys of stored attrs are already qualified.
	for _, attr := range h.attrs {
		entry.Attributes[attr.Key] = resolveValue(attr.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attributes[h.qualify(a.Key)] = resolveValue(a.Value)
		return true
	})
	h.collector.AddLog(h.component, entry)

	if !h.underlying.Enabled(ctx, r.Level) {
		return nil
	}
	return h.underlying.Handle(ctx, r)
}

// WithAttrs returns a CapturingHandler carrying attrs. It must not return the
// underlying handler or capture would stop for derived loggers.
func (h *CapturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	next.underlying = h.underlying.WithAttrs(attrs)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.qualify(a.Key), Value: a.Value})
	}
	return next
}

// WithGroup returns a CapturingHandler that prefixes later keys with name.
func (h *CapturingHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.underlying = h.underlying.WithGroup(name)
	next.groups = append(next.groups, name)
	return next
}

func (h *CapturingHandler) clone() *CapturingHandler {
	return &CapturingHandler{
		underlying: h.underlying,
		collector:  h.collector,
		component:  h.component,
		attrs:      append([]slog.Attr(nil), h.attrs...),
		groups:     append([]string(nil), h.groups...),
	}
}

// qualify prefixes key with the open groups, "a.b.key".
func (h *CapturingHandler) qualify(key string) string {
	for i := len(h.groups) - 1; i >= 0; i-- {
		key = h.groups[i] + "." + key
	}
	return key
}

// resolveValue converts a slog.Value into something encoding/json can write.
func resolveValue(v slog.Value) any {
	v = v.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time()
	case slog.KindGroup:
		attrs := v.Group()
		group := make(map[string]any, len(attrs))
		for _, attr := range attrs {
			group[attr.Key] = resolveValue(attr.Value)
		}
		return group
	default:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	}
}
