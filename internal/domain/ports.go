package domain

import (
	"context"
	"fmt"
	"time"
)

// PeriodStore defines the persistence contract for status-track periods.
// Find methods return (nil, nil) when no matching period exists. Every call
// is a potential database round trip; timeout policy belongs to the caller.
//
// Implementations must make Insert and CloseOpen atomic with respect to the
// at-most-one-open-period invariant (a partial unique index or equivalent),
// since check-then-mutate at the application layer is inherently racy.
type PeriodStore interface {
	// FindOpen returns the open period already in effect at asOf.
	// Returns MultipleOpenPeriodsError if the invariant is broken.
	FindOpen(ctx context.Context, m Member, kind TrackKind, asOf time.Time) (*Period, error)

	// FindOpenFuture returns the open period scheduled after asOf.
	FindOpenFuture(ctx context.Context, m Member, kind TrackKind, asOf time.Time) (*Period, error)

	// FindMostRecentClosed returns the closed period with the greatest end date.
	FindMostRecentClosed(ctx context.Context, m Member, kind TrackKind) (*Period, error)

	// FindEarliest returns the period with the least start date, open or closed.
	FindEarliest(ctx context.Context, m Member, kind TrackKind) (*Period, error)

	// Exists reports whether any period was ever recorded on the track.
	Exists(ctx context.Context, m Member, kind TrackKind) (bool, error)

	// Insert creates a new open period. Returns AlreadyOpenError when an
	// open period already exists on the track.
	Insert(ctx context.Context, m Member, kind TrackKind, startedAt time.Time) (Period, error)

	// CloseOpen sets the end date on the track's single open period.
	// Returns NoOpenPeriodError when there is nothing to close and
	// InvalidRangeError when endedAt precedes the period's start.
	CloseOpen(ctx context.Context, m Member, kind TrackKind, endedAt time.Time) (Period, error)
}

// StatusChange describes one applied transition, emitted after the period
// store has been mutated.
type StatusChange struct {
	Operation Operation
	Member    Member
	Track     TrackKind
	Period    Period
}

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	Publish(ctx context.Context, change StatusChange) error
}

// LifecycleValidator checks a period mutation against the track lifecycle
// defined by LifecycleTransitions and returns the destination state.
type LifecycleValidator interface {
	Apply(ctx context.Context, current LifecycleState, event LifecycleEvent) (LifecycleState, error)
}

// LifecycleError is returned by a LifecycleValidator when a mutation is not
// legal from the current lifecycle state.
type LifecycleError struct {
	Event   LifecycleEvent
	Current LifecycleState
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("event %q is not valid from lifecycle state %q", e.Event, e.Current)
}
