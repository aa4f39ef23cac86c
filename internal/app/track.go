package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/grapplehq/ringside/internal/domain"
)

// StatusTrack answers temporal questions about one track kind and is the
// only legal way to open or close periods on it. All reads are pure
// projections of the period store at call time; Open and Close are the
// sole mutators, and both consult the lifecycle validator first.
type StatusTrack struct {
	store     domain.PeriodStore
	lifecycle domain.LifecycleValidator
	kind      domain.TrackKind
	clock     func() time.Time
}

// NewStatusTrack creates a track bound to one kind. A nil clock defaults
// to time.Now.
func NewStatusTrack(store domain.PeriodStore, lifecycle domain.LifecycleValidator, kind domain.TrackKind, clock func() time.Time) *StatusTrack {
	if clock == nil {
		clock = time.Now
	}
	return &StatusTrack{
		store:     store,
		lifecycle: lifecycle,
		kind:      kind,
		clock:     clock,
	}
}

// Kind returns the track kind this instance answers for.
func (t *StatusTrack) Kind() domain.TrackKind { return t.kind }

// Current returns the open period already in effect, or nil.
func (t *StatusTrack) Current(ctx context.Context, m domain.Member) (*domain.Period, error) {
	return t.store.FindOpen(ctx, m, t.kind, t.clock())
}

// Future returns the open period scheduled but not yet effective, or nil.
func (t *StatusTrack) Future(ctx context.Context, m domain.Member) (*domain.Period, error) {
	return t.store.FindOpenFuture(ctx, m, t.kind, t.clock())
}

// MostRecentPast returns the closed period with the greatest end date, or nil.
func (t *StatusTrack) MostRecentPast(ctx context.Context, m domain.Member) (*domain.Period, error) {
	return t.store.FindMostRecentClosed(ctx, m, t.kind)
}

// First returns the period with the least start date, or nil. Used for
// debut-date reporting.
func (t *StatusTrack) First(ctx context.Context, m domain.Member) (*domain.Period, error) {
	return t.store.FindEarliest(ctx, m, t.kind)
}

// HasAny reports whether any period exists on the track, open or closed.
func (t *StatusTrack) HasAny(ctx context.Context, m domain.Member) (bool, error) {
	return t.store.Exists(ctx, m, t.kind)
}

// IsActive reports whether a period is currently in effect.
func (t *StatusTrack) IsActive(ctx context.Context, m domain.Member) (bool, error) {
	current, err := t.Current(ctx, m)
	if err != nil {
		return false, err
	}
	return current != nil, nil
}

// Fact assembles the full read-side projection of the track for one owner.
func (t *StatusTrack) Fact(ctx context.Context, m domain.Member) (domain.StatusFact, error) {
	current, err := t.Current(ctx, m)
	if err != nil {
		return domain.StatusFact{}, fmt.Errorf("loading current %s period: %w", t.kind, err)
	}

	future, err := t.Future(ctx, m)
	if err != nil {
		return domain.StatusFact{}, fmt.Errorf("loading future %s period: %w", t.kind, err)
	}

	past, err := t.MostRecentPast(ctx, m)
	if err != nil {
		return domain.StatusFact{}, fmt.Errorf("loading past %s period: %w", t.kind, err)
	}

	hasAny, err := t.HasAny(ctx, m)
	if err != nil {
		return domain.StatusFact{}, fmt.Errorf("checking %s history: %w", t.kind, err)
	}

	return domain.StatusFact{
		Current:        current,
		Future:         future,
		MostRecentPast: past,
		HasAny:         hasAny,
	}, nil
}

// Open creates a new open period starting at startedAt. It fails with
// AlreadyOpenError when the track already has an open or scheduled period.
func (t *StatusTrack) Open(ctx context.Context, m domain.Member, startedAt time.Time) (domain.Period, error) {
	fact, err := t.Fact(ctx, m)
	if err != nil {
		return domain.Period{}, err
	}

	if _, err := t.lifecycle.Apply(ctx, fact.LifecycleState(), domain.LifecycleOpenPeriod); err != nil {
		var lcErr *domain.LifecycleError
		if errors.As(err, &lcErr) {
			return domain.Period{}, &domain.AlreadyOpenError{Member: m, Track: t.kind}
		}
		return domain.Period{}, err
	}

	return t.store.Insert(ctx, m, t.kind, startedAt)
}

// Close sets the end date on the currently effective period. It fails with
// NoOpenPeriodError when no period is in effect and InvalidRangeError when
// endedAt precedes the period's start.
func (t *StatusTrack) Close(ctx context.Context, m domain.Member, endedAt time.Time) (domain.Period, error) {
	fact, err := t.Fact(ctx, m)
	if err != nil {
		return domain.Period{}, err
	}

	if _, err := t.lifecycle.Apply(ctx, fact.LifecycleState(), domain.LifecycleClosePeriod); err != nil {
		var lcErr *domain.LifecycleError
		if errors.As(err, &lcErr) {
			return domain.Period{}, &domain.NoOpenPeriodError{Member: m, Track: t.kind}
		}
		return domain.Period{}, err
	}

	if endedAt.Before(fact.Current.StartedAt) {
		return domain.Period{}, &domain.InvalidRangeError{
			Track:     t.kind,
			StartedAt: fact.Current.StartedAt,
			EndedAt:   endedAt,
		}
	}

	return t.store.CloseOpen(ctx, m, t.kind, endedAt)
}
