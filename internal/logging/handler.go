package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/wpbridge/internal/model"
	"github.com/olegiv/wpbridge/internal/store"
)

// CategoryKey is the attribute that names the event log category.
const CategoryKey = "category"

// EventWriter persists one event log entry.
type EventWriter interface {
	CreateEvent(ctx context.Context, arg store.CreateEventParams) (store.Event, error)
}

// EventLogHandler is a slog.Handler that forwards to an inner handler and
// also writes records at or above its level to the event log.
type EventLogHandler struct {
	inner  slog.Handler
	writer EventWriter
	level  slog.Level // Minimum level to persist (default: WARN)
	attrs  []slog.Attr
	group  string
}

// NewEventLogHandler wraps inner and persists WARN and ERROR records.
func NewEventLogHandler(inner slog.Handler, writer EventWriter) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, writer, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel wraps inner with a custom persistence threshold.
func NewEventLogHandlerWithLevel(inner slog.Handler, writer EventWriter, level slog.Level) *EventLogHandler {
	return &EventLogHandler{inner: inner, writer: writer, level: level}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level || h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if h.inner.Enabled(ctx, r.Level) {
		err = h.inner.Handle(ctx, r)
	}

	if r.Level >= h.level {
		h.persist(ctx, r)
	}

	return err
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), h.qualify(attrs)...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.inner = h.inner.WithGroup(name)
	clone.group = h.group + name + "."
	return &clone
}

// qualify prefixes attribute keys with the open groups. CategoryKey stays
// bare so the category is found at any group depth.
func (h *EventLogHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		if a.Key == CategoryKey {
			out[i] = a
			continue
		}
		out[i] = slog.Attr{Key: h.group + a.Key, Value: a.Value}
	}
	return out
}

func (h *EventLogHandler) persist(ctx context.Context, r slog.Record) {
	attrs := append([]slog.Attr(nil), h.attrs...)
	var recordAttrs []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		recordAttrs = append(recordAttrs, a)
		return true
	})
	attrs = append(attrs, h.qualify(recordAttrs)...)

	created := r.Time
	if created.IsZero() {
		created = time.Now()
	}

	// The request may already be cancelled; the entry is still wanted.
	_, _ = h.writer.CreateEvent(context.WithoutCancel(ctx), store.CreateEventParams{
		Level:     EventLevel(r.Level),
		Category:  category(r.Message, attrs),
		Message:   r.Message,
		Metadata:  metadata(attrs),
		CreatedAt: created,
	})
}

// EventLevel converts a slog level to an event log level.
func EventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// category uses the last category attribute, or infers one from the message.
func category(msg string, attrs []slog.Attr) string {
	for i := len(attrs) - 1; i >= 0; i-- {
		if attrs[i].Key == CategoryKey {
			if v := attrs[i].Value.String(); v != "" {
				return v
			}
		}
	}

	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "source") || strings.Contains(m, "wordpress"):
		return model.EventCategorySource
	case strings.Contains(m, "contact"):
		return model.EventCategoryContact
	case strings.Contains(m, "setting") || strings.Contains(m, "tracking"):
		return model.EventCategorySettings
	case strings.Contains(m, "auth") || strings.Contains(m, "token"):
		return model.EventCategoryAuth
	case strings.Contains(m, "cache") || strings.Contains(m, "redis"):
		return model.EventCategoryCache
	case strings.Contains(m, "mail") || strings.Contains(m, "smtp"):
		return model.EventCategoryMail
	default:
		return model.EventCategorySystem
	}
}

func metadata(attrs []slog.Attr) string {
	m := make(map[string]any, len(attrs))
	for _, a := range attrs {
		if a.Key == CategoryKey || a.Key == "" {
			continue
		}
		v := a.Value.Resolve()
		switch v.Kind() {
		case slog.KindString:
			m[a.Key] = v.String()
		case slog.KindInt64:
			m[a.Key] = v.Int64()
		case slog.KindUint64:
			m[a.Key] = v.Uint64()
		case slog.KindFloat64:
			m[a.Key] = v.Float64()
		case slog.KindBool:
			m[a.Key] = v.Bool()
		default:
			m[a.Key] = v.String()
		}
	}
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
