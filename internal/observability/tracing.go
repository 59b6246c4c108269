package observability

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Span times one unit of work inside a request. Spans are not exported anywhere;
// finished spans are written to the log at debug level.
type Span struct {
	TraceID   string            `json:"trace_id"`
	SpanID    string            `json:"span_id"`
	ParentID  string            `json:"parent_id,omitempty"`
	Operation string            `json:"operation"`
	StartTime time.Time         `json:"start_time"`
	Duration  time.Duration     `json:"duration"`
	Tags      map[string]string `json:"tags,omitempty"`
	Err       string            `json:"error,omitempty"`
}

type spanContextKey struct{}

// StartSpan opens a span as a child of the span in ctx, if there is one.
func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	span := &Span{
		TraceID:   newID(),
		SpanID:    newID(),
		Operation: operation,
		StartTime: time.Now(),
		Tags:      make(map[string]string),
	}

	if parent := GetSpan(ctx); parent != nil {
		span.ParentID = parent.SpanID
		span.TraceID = parent.TraceID
	}

	return context.WithValue(ctx, spanContextKey{}, span), span
}

func (s *Span) SetTag(key, value string) {
	s.Tags[key] = value
}

func (s *Span) SetError(err error) {
	if err != nil {
		s.Err = err.Error()
	}
}

// Finish records the span duration and logs it.
func (s *Span) Finish(logger *slog.Logger) {
	s.Duration = time.Since(s.StartTime)

	attrs := []any{
		"trace_id", s.TraceID,
		"span_id", s.SpanID,
		"operation", s.Operation,
		"duration", s.Duration,
	}
	if s.ParentID != "" {
		attrs = append(attrs, "parent_id", s.ParentID)
	}
	for _, k := range slices.Sorted(maps.Keys(s.Tags)) {
		attrs = append(attrs, k, s.Tags[k])
	}

	if s.Err != "" {
		logger.Warn("span finished with error", append(attrs, "error", s.Err)...)
		return
	}
	logger.Debug("span finished", attrs...)
}

func GetSpan(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanContextKey{}).(*Span); ok {
		return span
	}
	return nil
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
