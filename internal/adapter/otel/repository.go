package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/grapplehq/ringside/internal/domain"
)

const tracerName = "github.com/grapplehq/ringside/internal/adapter/otel"

// TracingStore wraps a domain.PeriodStore with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingStore struct {
	next   domain.PeriodStore
	tracer trace.Tracer
}

// Compile-time check: TracingStore implements domain.PeriodStore.
var _ domain.PeriodStore = (*TracingStore)(nil)

// NewTracingStore creates a tracing decorator around the given store.
func NewTracingStore(next domain.PeriodStore) *TracingStore {
	return &TracingStore{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func memberAttrs(m domain.Member, kind domain.TrackKind) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("owner.id", m.ID),
		attribute.String("owner.type", string(m.Type)),
		attribute.String("track.kind", string(kind)),
	}
}

func (s *TracingStore) FindOpen(ctx context.Context, m domain.Member, kind domain.TrackKind, asOf time.Time) (*domain.Period, error) {
	ctx, span := s.tracer.Start(ctx, "PeriodStore.FindOpen",
		trace.WithAttributes(memberAttrs(m, kind)...),
	)
	defer span.End()

	period, err := s.next.FindOpen(ctx, m, kind, asOf)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Bool("result.found", period != nil))
	}
	return period, err
}

func (s *TracingStore) FindOpenFuture(ctx context.Context, m domain.Member, kind domain.TrackKind, asOf time.Time) (*domain.Period, error) {
	ctx, span := s.tracer.Start(ctx, "PeriodStore.FindOpenFuture",
		trace.WithAttributes(memberAttrs(m, kind)...),
	)
	defer span.End()

	period, err := s.next.FindOpenFuture(ctx, m, kind, asOf)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Bool("result.found", period != nil))
	}
	return period, err
}

func (s *TracingStore) FindMostRecentClosed(ctx context.Context, m domain.Member, kind domain.TrackKind) (*domain.Period, error) {
	ctx, span := s.tracer.Start(ctx, "PeriodStore.FindMostRecentClosed",
		trace.WithAttributes(memberAttrs(m, kind)...),
	)
	defer span.End()

	period, err := s.next.FindMostRecentClosed(ctx, m, kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Bool("result.found", period != nil))
	}
	return period, err
}

func (s *TracingStore) FindEarliest(ctx context.Context, m domain.Member, kind domain.TrackKind) (*domain.Period, error) {
	ctx, span := s.tracer.Start(ctx, "PeriodStore.FindEarliest",
		trace.WithAttributes(memberAttrs(m, kind)...),
	)
	defer span.End()

	period, err := s.next.FindEarliest(ctx, m, kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Bool("result.found", period != nil))
	}
	return period, err
}

func (s *TracingStore) Exists(ctx context.Context, m domain.Member, kind domain.TrackKind) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "PeriodStore.Exists",
		trace.WithAttributes(memberAttrs(m, kind)...),
	)
	defer span.End()

	exists, err := s.next.Exists(ctx, m, kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return exists, err
}

func (s *TracingStore) Insert(ctx context.Context, m domain.Member, kind domain.TrackKind, startedAt time.Time) (domain.Period, error) {
	ctx, span := s.tracer.Start(ctx, "PeriodStore.Insert",
		trace.WithAttributes(memberAttrs(m, kind)...),
	)
	defer span.End()

	period, err := s.next.Insert(ctx, m, kind, startedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.String("period.id", period.ID))
	}
	return period, err
}

func (s *TracingStore) CloseOpen(ctx context.Context, m domain.Member, kind domain.TrackKind, endedAt time.Time) (domain.Period, error) {
	ctx, span := s.tracer.Start(ctx, "PeriodStore.CloseOpen",
		trace.WithAttributes(memberAttrs(m, kind)...),
	)
	defer span.End()

	period, err := s.next.CloseOpen(ctx, m, kind, endedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.String("period.id", period.ID))
	}
	return period, err
}
