package otel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/grapplehq/ringside/internal/adapter/otel"
	"github.com/grapplehq/ringside/internal/domain"
)

var (
	testNow  = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	wrestler = domain.Member{ID: "w-1", Type: domain.OwnerWrestler}
)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

// --- Mock store ---

type mockStore struct {
	periods []domain.Period
	err     error
}

func (m *mockStore) FindOpen(_ context.Context, member domain.Member, kind domain.TrackKind, asOf time.Time) (*domain.Period, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.periods {
		p := &m.periods[i]
		if p.OwnerID == member.ID && p.Track == kind && p.EndedAt == nil && !p.StartedAt.After(asOf) {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockStore) FindOpenFuture(_ context.Context, member domain.Member, kind domain.TrackKind, asOf time.Time) (*domain.Period, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.periods {
		p := &m.periods[i]
		if p.OwnerID == member.ID && p.Track == kind && p.EndedAt == nil && p.StartedAt.After(asOf) {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockStore) FindMostRecentClosed(_ context.Context, member domain.Member, kind domain.TrackKind) (*domain.Period, error) {
	return nil, m.err
}

func (m *mockStore) FindEarliest(_ context.Context, member domain.Member, kind domain.TrackKind) (*domain.Period, error) {
	return nil, m.err
}

func (m *mockStore) Exists(_ context.Context, member domain.Member, kind domain.TrackKind) (bool, error) {
	return len(m.periods) > 0, m.err
}

func (m *mockStore) Insert(_ context.Context, member domain.Member, kind domain.TrackKind, startedAt time.Time) (domain.Period, error) {
	if m.err != nil {
		return domain.Period{}, m.err
	}
	p := domain.Period{
		ID:        "p-1",
		OwnerID:   member.ID,
		OwnerType: member.Type,
		Track:     kind,
		StartedAt: startedAt,
	}
	m.periods = append(m.periods, p)
	return p, nil
}

func (m *mockStore) CloseOpen(_ context.Context, member domain.Member, kind domain.TrackKind, endedAt time.Time) (domain.Period, error) {
	if m.err != nil {
		return domain.Period{}, m.err
	}
	for i := range m.periods {
		p := &m.periods[i]
		if p.OwnerID == member.ID && p.Track == kind && p.EndedAt == nil {
			p.EndedAt = &endedAt
			return *p, nil
		}
	}
	return domain.Period{}, &domain.NoOpenPeriodError{Member: member, Track: kind}
}

// --- Tests ---

func TestTracingStore_Insert_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockStore{}
	store := adapter.NewTracingStore(inner)

	if _, err := store.Insert(context.Background(), wrestler, domain.TrackEmployment, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "PeriodStore.Insert" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "PeriodStore.Insert")
	}

	assertAttribute(t, spans[0], "owner.id", "w-1")
	assertAttribute(t, spans[0], "owner.type", "wrestler")
	assertAttribute(t, spans[0], "track.kind", "employment")
	assertAttribute(t, spans[0], "period.id", "p-1")
}

func TestTracingStore_FindOpen_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockStore{}
	store := adapter.NewTracingStore(inner)

	if _, err := inner.Insert(context.Background(), wrestler, domain.TrackEmployment, testNow.Add(-time.Hour)); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	got, err := store.FindOpen(context.Background(), wrestler, domain.TrackEmployment, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a period")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "PeriodStore.FindOpen" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "PeriodStore.FindOpen")
	}

	assertAttribute(t, spans[0], "result.found", "true")
}

func TestTracingStore_CloseOpen_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockStore{}
	store := adapter.NewTracingStore(inner)

	_, err := store.CloseOpen(context.Background(), wrestler, domain.TrackEmployment, testNow)
	var noOpen *domain.NoOpenPeriodError
	if !errors.As(err, &noOpen) {
		t.Fatalf("expected NoOpenPeriodError, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}

	if len(spans[0].Events) == 0 {
		t.Error("expected error event on span")
	}
}

func TestTracingStore_Exists_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockStore{}
	store := adapter.NewTracingStore(inner)

	exists, err := store.Exists(context.Background(), wrestler, domain.TrackEmployment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("empty store should not report existence")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "PeriodStore.Exists" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "PeriodStore.Exists")
	}
}

// assertAttribute checks that a span has an attribute with the given key and string value.
func assertAttribute(t *testing.T, span tracetest.SpanStub, key, want string) {
	t.Helper()
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			got := attr.Value.Emit()
			if got != want {
				t.Errorf("attribute %q = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %q not found on span %q", key, span.Name)
}
