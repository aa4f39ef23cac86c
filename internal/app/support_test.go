package app_test

import (
	"context"
	"fmt"
	"time"

	"github.com/grapplehq/ringside/internal/app"
	"github.com/grapplehq/ringside/internal/domain"
)

// testNow pins the clock for every app test.
var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// memStore is an in-memory PeriodStore. It enforces the same open-period
// constraint as the SQLite adapter's partial unique index, so invariant
// behavior matches production.
type memStore struct {
	periods []domain.Period
	seq     int
}

func newMemStore() *memStore { return &memStore{} }

func (s *memStore) matching(m domain.Member, kind domain.TrackKind) []*domain.Period {
	var out []*domain.Period
	for i := range s.periods {
		p := &s.periods[i]
		if p.OwnerID == m.ID && p.OwnerType == m.Type && p.Track == kind {
			out = append(out, p)
		}
	}
	return out
}

func (s *memStore) FindOpen(_ context.Context, m domain.Member, kind domain.TrackKind, asOf time.Time) (*domain.Period, error) {
	var open []*domain.Period
	for _, p := range s.matching(m, kind) {
		if p.Open() && !p.StartedAt.After(asOf) {
			open = append(open, p)
		}
	}
	if len(open) > 1 {
		return nil, &domain.MultipleOpenPeriodsError{Member: m, Track: kind, Count: len(open)}
	}
	if len(open) == 0 {
		return nil, nil
	}
	cp := *open[0]
	return &cp, nil
}

func (s *memStore) FindOpenFuture(_ context.Context, m domain.Member, kind domain.TrackKind, asOf time.Time) (*domain.Period, error) {
	for _, p := range s.matching(m, kind) {
		if p.Open() && p.StartedAt.After(asOf) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindMostRecentClosed(_ context.Context, m domain.Member, kind domain.TrackKind) (*domain.Period, error) {
	var best *domain.Period
	for _, p := range s.matching(m, kind) {
		if p.EndedAt == nil {
			continue
		}
		if best == nil || p.EndedAt.After(*best.EndedAt) {
			best = p
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (s *memStore) FindEarliest(_ context.Context, m domain.Member, kind domain.TrackKind) (*domain.Period, error) {
	var best *domain.Period
	for _, p := range s.matching(m, kind) {
		if best == nil || p.StartedAt.Before(best.StartedAt) {
			best = p
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (s *memStore) Exists(_ context.Context, m domain.Member, kind domain.TrackKind) (bool, error) {
	return len(s.matching(m, kind)) > 0, nil
}

func (s *memStore) Insert(_ context.Context, m domain.Member, kind domain.TrackKind, startedAt time.Time) (domain.Period, error) {
	for _, p := range s.matching(m, kind) {
		if p.Open() {
			return domain.Period{}, &domain.AlreadyOpenError{Member: m, Track: kind}
		}
	}

	s.seq++
	p := domain.Period{
		ID:        fmt.Sprintf("p-%d", s.seq),
		OwnerID:   m.ID,
		OwnerType: m.Type,
		Track:     kind,
		StartedAt: startedAt,
		CreatedAt: testNow,
	}
	s.periods = append(s.periods, p)
	return p, nil
}

func (s *memStore) CloseOpen(_ context.Context, m domain.Member, kind domain.TrackKind, endedAt time.Time) (domain.Period, error) {
	for i := range s.periods {
		p := &s.periods[i]
		if p.OwnerID != m.ID || p.OwnerType != m.Type || p.Track != kind || !p.Open() {
			continue
		}
		if endedAt.Before(p.StartedAt) {
			return domain.Period{}, &domain.InvalidRangeError{Track: kind, StartedAt: p.StartedAt, EndedAt: endedAt}
		}
		ended := endedAt
		p.EndedAt = &ended
		return *p, nil
	}
	return domain.Period{}, &domain.NoOpenPeriodError{Member: m, Track: kind}
}

// inject adds a raw period, bypassing the open-period constraint. Used to
// simulate corrupted data.
func (s *memStore) inject(p domain.Period) {
	s.periods = append(s.periods, p)
}

// tableLifecycle validates period mutations straight from the domain
// transition table; app tests do not need the FSM adapter.
type tableLifecycle struct{}

func (tableLifecycle) Apply(_ context.Context, current domain.LifecycleState, event domain.LifecycleEvent) (domain.LifecycleState, error) {
	for _, tr := range domain.LifecycleTransitions {
		if tr.Event == event && tr.Src == current {
			return tr.Dst, nil
		}
	}
	return "", &domain.LifecycleError{Event: event, Current: current}
}

type recordedChange struct {
	change domain.StatusChange
}

type mockPublisher struct {
	changes []recordedChange
}

func (m *mockPublisher) Publish(_ context.Context, change domain.StatusChange) error {
	m.changes = append(m.changes, recordedChange{change: change})
	return nil
}

func newTestService(store *memStore, pub *mockPublisher) (*app.RosterService, error) {
	return app.NewRosterService(store, pub, tableLifecycle{}, app.WithClock(testClock))
}
