package app

import (
	"context"
	"fmt"
	"time"

	"github.com/grapplehq/ringside/internal/domain"
)

// RosterService orchestrates roster status transitions: it loads facts,
// runs the operation's rule sequence, mutates the period store through the
// status tracks, and publishes a status-changed event. Transitions are
// synchronous; atomicity across the check and mutation of one track relies
// on the period store's open-period constraint.
type RosterService struct {
	store     domain.PeriodStore
	publisher domain.EventPublisher
	validator *Validator
	tracks    map[domain.TrackKind]*StatusTrack
	clock     func() time.Time
}

// Option configures a RosterService.
type Option func(*RosterService)

// WithClock replaces the service clock, used by tests to pin "now".
func WithClock(clock func() time.Time) Option {
	return func(s *RosterService) { s.clock = clock }
}

// NewRosterService creates a service with the given adapters. It builds
// one status track per kind and fails when the validator's strategy
// registry is incomplete.
func NewRosterService(store domain.PeriodStore, publisher domain.EventPublisher, lifecycle domain.LifecycleValidator, opts ...Option) (*RosterService, error) {
	s := &RosterService{
		store:     store,
		publisher: publisher,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.tracks = make(map[domain.TrackKind]*StatusTrack)
	for _, kind := range []domain.TrackKind{
		domain.TrackEmployment,
		domain.TrackInjury,
		domain.TrackSuspension,
		domain.TrackRetirement,
		domain.TrackActivity,
	} {
		s.tracks[kind] = NewStatusTrack(store, lifecycle, kind, s.clock)
	}

	validator, err := NewValidator(s.tracks)
	if err != nil {
		return nil, fmt.Errorf("building transition validator: %w", err)
	}
	s.validator = validator

	return s, nil
}

// Validator exposes the boolean and ensure forms of the transition rules
// for callers that need a dry-run check without mutating anything.
func (s *RosterService) Validator() *Validator { return s.validator }

// Track returns the status track for one kind, for read-side queries.
func (s *RosterService) Track(kind domain.TrackKind) *StatusTrack { return s.tracks[kind] }

// effectiveAt defaults a zero transition time to the service clock.
func (s *RosterService) effectiveAt(at time.Time) time.Time {
	if at.IsZero() {
		return s.clock().UTC()
	}
	return at
}

// checkTrack rejects operations on tracks the member's category does not
// carry. This guards the mutation path; validators additionally express
// category rules that are preconditions (NotInjurable) rather than wiring
// mistakes.
func checkTrack(op domain.Operation, m domain.Member, kind domain.TrackKind) error {
	category, err := domain.CategoryOf(m.Type)
	if err != nil {
		return err
	}
	if !category.Supports(kind) {
		return &domain.UnsupportedOperationError{Operation: op, Type: m.Type}
	}
	return nil
}

// apply publishes the status change after a successful mutation.
func (s *RosterService) apply(ctx context.Context, op domain.Operation, m domain.Member, kind domain.TrackKind, p domain.Period) (domain.Period, error) {
	change := domain.StatusChange{Operation: op, Member: m, Track: kind, Period: p}
	if err := s.publisher.Publish(ctx, change); err != nil {
		return domain.Period{}, fmt.Errorf("publishing %s event: %w", op, err)
	}
	return p, nil
}

// Employ opens an employment period at the given time. A future start date
// schedules the employment rather than making it effective immediately.
func (s *RosterService) Employ(ctx context.Context, m domain.Member, at time.Time) (domain.Period, error) {
	if err := checkTrack(domain.OpEmploy, m, domain.TrackEmployment); err != nil {
		return domain.Period{}, err
	}
	if err := s.validator.EnsureCanEmploy(ctx, m); err != nil {
		return domain.Period{}, err
	}

	p, err := s.tracks[domain.TrackEmployment].Open(ctx, m, s.effectiveAt(at))
	if err != nil {
		return domain.Period{}, err
	}
	return s.apply(ctx, domain.OpEmploy, m, domain.TrackEmployment, p)
}

// Release closes the current employment period.
func (s *RosterService) Release(ctx context.Context, m domain.Member, at time.Time) (domain.Period, error) {
	if err := checkTrack(domain.OpRelease, m, domain.TrackEmployment); err != nil {
		return domain.Period{}, err
	}
	if err := s.validator.EnsureCanRelease(ctx, m); err != nil {
		return domain.Period{}, err
	}

	p, err := s.tracks[domain.TrackEmployment].Close(ctx, m, s.effectiveAt(at))
	if err != nil {
		return domain.Period{}, err
	}
	return s.apply(ctx, domain.OpRelease, m, domain.TrackEmployment, p)
}

// Injure opens an injury period. Team-category members are rejected with
// a NotInjurable precondition before any track is touched.
func (s *RosterService) Injure(ctx context.Context, m domain.Member, at time.Time) (domain.Period, error) {
	if err := s.validator.EnsureCanInjure(ctx, m); err != nil {
		return domain.Period{}, err
	}

	p, err := s.tracks[domain.TrackInjury].Open(ctx, m, s.effectiveAt(at))
	if err != nil {
		return domain.Period{}, err
	}
	return s.apply(ctx, domain.OpInjure, m, domain.TrackInjury, p)
}

// Heal closes the current injury period.
func (s *RosterService) Heal(ctx context.Context, m domain.Member, at time.Time) (domain.Period, error) {
	if err := s.validator.EnsureCanHeal(ctx, m); err != nil {
		return domain.Period{}, err
	}

	p, err := s.tracks[domain.TrackInjury].Close(ctx, m, s.effectiveAt(at))
	if err != nil {
		return domain.Period{}, err
	}
	return s.apply(ctx, domain.OpHeal, m, domain.TrackInjury, p)
}

// Suspend opens a suspension period, subject to the category's strategy.
func (s *RosterService) Suspend(ctx context.Context, m domain.Member, at time.Time) (domain.Period, error) {
	if err := checkTrack(domain.OpSuspend, m, domain.TrackSuspension); err != nil {
		return domain.Period{}, err
	}
	if err := s.validator.EnsureCanSuspend(ctx, m); err != nil {
		return domain.Period{}, err
	}

	p, err := s.tracks[domain.TrackSuspension].Open(ctx, m, s.effectiveAt(at))
	if err != nil {
		return domain.Period{}, err
	}
	return s.apply(ctx, domain.OpSuspend, m, domain.TrackSuspension, p)
}

// Reinstate closes the current suspension period.
func (s *RosterService) Reinstate(ctx context.Context, m domain.Member, at time.Time) (domain.Period, error) {
	if err := checkTrack(domain.OpReinstate, m, domain.TrackSuspension); err != nil {
		return domain.Period{}, err
	}
	if err := s.validator.EnsureCanReinstate(ctx, m); err != nil {
		return domain.Period{}, err
	}

	p, err := s.tracks[domain.TrackSuspension].Close(ctx, m, s.effectiveAt(at))
	if err != nil {
		return domain.Period{}, err
	}
	return s.apply(ctx, domain.OpReinstate, m, domain.TrackSuspension, p)
}

// Retire ends the current employment and opens a retirement period. For
// team-category members an effective activity period is also closed, so a
// retiring stable or title leaves the active roster in one transition.
func (s *RosterService) Retire(ctx context.Context, m domain.Member, at time.Time) (domain.Period, error) {
	if err := checkTrack(domain.OpRetire, m, domain.TrackRetirement); err != nil {
		return domain.Period{}, err
	}
	if err := s.validator.EnsureCanRetire(ctx, m); err != nil {
		return domain.Period{}, err
	}

	effective := s.effectiveAt(at)

	if _, err := s.tracks[domain.TrackEmployment].Close(ctx, m, effective); err != nil {
		return domain.Period{}, fmt.Errorf("ending employment on retire: %w", err)
	}

	category, err := domain.CategoryOf(m.Type)
	if err != nil {
		return domain.Period{}, err
	}
	if category.HasActivity() {
		active, err := s.tracks[domain.TrackActivity].IsActive(ctx, m)
		if err != nil {
			return domain.Period{}, err
		}
		if active {
			if _, err := s.tracks[domain.TrackActivity].Close(ctx, m, effective); err != nil {
				return domain.Period{}, fmt.Errorf("ending activity on retire: %w", err)
			}
		}
	}

	p, err := s.tracks[domain.TrackRetirement].Open(ctx, m, effective)
	if err != nil {
		return domain.Period{}, err
	}
	return s.apply(ctx, domain.OpRetire, m, domain.TrackRetirement, p)
}

// Unretire closes the current retirement period. It touches no other
// track; a comeback still needs a fresh employment.
func (s *RosterService) Unretire(ctx context.Context, m domain.Member, at time.Time) (domain.Period, error) {
	if err := checkTrack(domain.OpUnretire, m, domain.TrackRetirement); err != nil {
		return domain.Period{}, err
	}
	if err := s.validator.EnsureCanUnretire(ctx, m); err != nil {
		return domain.Period{}, err
	}

	p, err := s.tracks[domain.TrackRetirement].Close(ctx, m, s.effectiveAt(at))
	if err != nil {
		return domain.Period{}, err
	}
	return s.apply(ctx, domain.OpUnretire, m, domain.TrackRetirement, p)
}

// Debut opens the first-ever activity period for a team-category member.
func (s *RosterService) Debut(ctx context.Context, m domain.Member, at time.Time) (domain.Period, error) {
	if err := s.validator.EnsureCanDebut(ctx, m); err != nil {
		return domain.Period{}, err
	}

	p, err := s.tracks[domain.TrackActivity].Open(ctx, m, s.effectiveAt(at))
	if err != nil {
		return domain.Period{}, err
	}
	return s.apply(ctx, domain.OpDebut, m, domain.TrackActivity, p)
}

// ReinstateActivity reactivates a previously active member by opening a
// new activity period.
func (s *RosterService) ReinstateActivity(ctx context.Context, m domain.Member, at time.Time) (domain.Period, error) {
	if err := s.validator.EnsureCanReinstateActivity(ctx, m); err != nil {
		return domain.Period{}, err
	}

	p, err := s.tracks[domain.TrackActivity].Open(ctx, m, s.effectiveAt(at))
	if err != nil {
		return domain.Period{}, err
	}
	return s.apply(ctx, domain.OpReinstateActivity, m, domain.TrackActivity, p)
}

// Deactivate closes the current activity period.
func (s *RosterService) Deactivate(ctx context.Context, m domain.Member, at time.Time) (domain.Period, error) {
	if err := s.validator.EnsureCanDeactivate(ctx, m); err != nil {
		return domain.Period{}, err
	}

	p, err := s.tracks[domain.TrackActivity].Close(ctx, m, s.effectiveAt(at))
	if err != nil {
		return domain.Period{}, err
	}
	return s.apply(ctx, domain.OpDeactivate, m, domain.TrackActivity, p)
}

// Apply dispatches a transition by operation name. The HTTP adapter routes
// requests through here.
func (s *RosterService) Apply(ctx context.Context, op domain.Operation, m domain.Member, at time.Time) (domain.Period, error) {
	switch op {
	case domain.OpEmploy:
		return s.Employ(ctx, m, at)
	case domain.OpRelease:
		return s.Release(ctx, m, at)
	case domain.OpInjure:
		return s.Injure(ctx, m, at)
	case domain.OpHeal:
		return s.Heal(ctx, m, at)
	case domain.OpSuspend:
		return s.Suspend(ctx, m, at)
	case domain.OpReinstate:
		return s.Reinstate(ctx, m, at)
	case domain.OpRetire:
		return s.Retire(ctx, m, at)
	case domain.OpUnretire:
		return s.Unretire(ctx, m, at)
	case domain.OpDebut:
		return s.Debut(ctx, m, at)
	case domain.OpReinstateActivity:
		return s.ReinstateActivity(ctx, m, at)
	case domain.OpDeactivate:
		return s.Deactivate(ctx, m, at)
	default:
		return domain.Period{}, &domain.UnsupportedOperationError{Operation: op, Type: m.Type}
	}
}

// TrackStatus is the read-side view of one track for one member.
type TrackStatus struct {
	Kind  domain.TrackKind
	Fact  domain.StatusFact
	First *domain.Period
}

// Status returns the facts for every track that applies to the member's
// category, including the earliest period for debut-date reporting.
func (s *RosterService) Status(ctx context.Context, m domain.Member) ([]TrackStatus, error) {
	category, err := domain.CategoryOf(m.Type)
	if err != nil {
		return nil, err
	}

	statuses := make([]TrackStatus, 0, len(category.Tracks()))
	for _, kind := range category.Tracks() {
		track := s.tracks[kind]

		fact, err := track.Fact(ctx, m)
		if err != nil {
			return nil, err
		}
		first, err := track.First(ctx, m)
		if err != nil {
			return nil, err
		}

		statuses = append(statuses, TrackStatus{Kind: kind, Fact: fact, First: first})
	}

	return statuses, nil
}
