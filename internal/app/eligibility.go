package app

import (
	"context"

	"github.com/grapplehq/ringside/internal/domain"
)

// Eligibility composes status-track facts into the derived booleans the
// booking side of the application consumes. Nothing here is cached; every
// call reads fresh facts.
type Eligibility struct {
	Bookable           bool
	NotCurrentlyActive bool
	Disbanded          bool
}

// IsBookable reports whether the member may currently be booked: employed,
// not suspended, not injured (where the category can be injured), and not
// merely scheduled for a future employment.
func (s *RosterService) IsBookable(ctx context.Context, m domain.Member) (bool, error) {
	category, err := domain.CategoryOf(m.Type)
	if err != nil {
		return false, err
	}

	employment, err := s.tracks[domain.TrackEmployment].Fact(ctx, m)
	if err != nil {
		return false, err
	}
	if !employment.Active() || employment.Future != nil {
		return false, nil
	}

	suspended, err := s.tracks[domain.TrackSuspension].IsActive(ctx, m)
	if err != nil {
		return false, err
	}
	if suspended {
		return false, nil
	}

	if category.CanBeInjured() {
		injured, err := s.tracks[domain.TrackInjury].IsActive(ctx, m)
		if err != nil {
			return false, err
		}
		if injured {
			return false, nil
		}
	}

	return true, nil
}

// IsNotCurrentlyActive reports whether a team-category member is off the
// active roster: inactive, merely scheduled for a future activation, or
// retired. Only meaningful for categories with an activity track.
func (s *RosterService) IsNotCurrentlyActive(ctx context.Context, m domain.Member) (bool, error) {
	category, err := domain.CategoryOf(m.Type)
	if err != nil {
		return false, err
	}
	if !category.HasActivity() {
		return false, &domain.UnsupportedOperationError{Operation: "is_not_currently_active", Type: m.Type}
	}

	activity, err := s.tracks[domain.TrackActivity].Fact(ctx, m)
	if err != nil {
		return false, err
	}
	if !activity.Active() || activity.Future != nil {
		return true, nil
	}

	retired, err := s.tracks[domain.TrackRetirement].IsActive(ctx, m)
	if err != nil {
		return false, err
	}
	return retired, nil
}

// IsDisbanded reports whether a team-category member was active at some
// point and no longer is.
func (s *RosterService) IsDisbanded(ctx context.Context, m domain.Member) (bool, error) {
	category, err := domain.CategoryOf(m.Type)
	if err != nil {
		return false, err
	}
	if !category.HasActivity() {
		return false, &domain.UnsupportedOperationError{Operation: "is_disbanded", Type: m.Type}
	}

	activity, err := s.tracks[domain.TrackActivity].Fact(ctx, m)
	if err != nil {
		return false, err
	}
	return activity.HasAny && !activity.Active(), nil
}

// EligibilityFor aggregates the eligibility booleans for one member. The
// activity-derived fields stay false for individual categories.
func (s *RosterService) EligibilityFor(ctx context.Context, m domain.Member) (Eligibility, error) {
	category, err := domain.CategoryOf(m.Type)
	if err != nil {
		return Eligibility{}, err
	}

	bookable, err := s.IsBookable(ctx, m)
	if err != nil {
		return Eligibility{}, err
	}

	e := Eligibility{Bookable: bookable}
	if category.HasActivity() {
		if e.NotCurrentlyActive, err = s.IsNotCurrentlyActive(ctx, m); err != nil {
			return Eligibility{}, err
		}
		if e.Disbanded, err = s.IsDisbanded(ctx, m); err != nil {
			return Eligibility{}, err
		}
	}

	return e, nil
}
