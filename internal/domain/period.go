package domain

import "time"

// TrackKind identifies one independent time-bounded status history.
type TrackKind string

const (
	TrackEmployment TrackKind = "employment"
	TrackInjury     TrackKind = "injury"
	TrackSuspension TrackKind = "suspension"
	TrackRetirement TrackKind = "retirement"
	TrackActivity   TrackKind = "activity"
)

// Period is one interval of a status track for one owner. A nil EndedAt
// means the period is open (ongoing or, when StartedAt is in the future,
// scheduled). Periods are never physically deleted; closing a track sets
// EndedAt and leaves the row as history.
type Period struct {
	ID        string
	OwnerID   string
	OwnerType OwnerType
	Track     TrackKind
	StartedAt time.Time
	EndedAt   *time.Time
	CreatedAt time.Time
}

// Open reports whether the period has no end date yet.
func (p Period) Open() bool {
	return p.EndedAt == nil
}

// Scheduled reports whether the period is open but not yet effective at t.
func (p Period) Scheduled(t time.Time) bool {
	return p.Open() && p.StartedAt.After(t)
}

// StatusFact is the read-side projection of one track for one owner at one
// instant. It is computed on demand from the period store and never cached;
// freshness across calls is the caller's responsibility.
type StatusFact struct {
	Current        *Period
	Future         *Period
	MostRecentPast *Period
	HasAny         bool
}

// Active reports whether a period is currently in effect.
func (f StatusFact) Active() bool {
	return f.Current != nil
}

// NeverStarted reports whether no period was ever recorded on the track.
func (f StatusFact) NeverStarted() bool {
	return !f.HasAny
}

// Ended reports whether the track had activity in the past but has no
// current period. For the employment track this is the "released" state.
func (f StatusFact) Ended() bool {
	return f.HasAny && f.Current == nil && f.MostRecentPast != nil
}

// LifecycleState returns the period-lifecycle state the track is in,
// consumed by the lifecycle validator before open/close mutations.
func (f StatusFact) LifecycleState() LifecycleState {
	switch {
	case f.Current != nil:
		return LifecycleOpen
	case f.Future != nil:
		return LifecycleScheduled
	case f.HasAny:
		return LifecycleClosed
	default:
		return LifecycleUnstarted
	}
}
