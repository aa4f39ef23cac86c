package app

import "github.com/grapplehq/ringside/internal/domain"

// Suspension and retirement rules differ by roster member category. The
// variants are closed: each StrategyID maps to one implementation in the
// validator's registry, injected at construction. No runtime resolution.

type suspensionStrategy interface {
	validateSuspend(s snapshot) error
}

type retirementStrategy interface {
	validateRetire(s snapshot) error
}

// individualSuspension governs wrestlers, managers and referees: they must
// be employed, not already suspended, and not sidelined by an injury.
type individualSuspension struct{}

func (individualSuspension) validateSuspend(s snapshot) error {
	if !s.employment.Active() {
		return domain.NewTransitionError(domain.OpSuspend, s.member, domain.ReasonUnemployed)
	}
	if s.suspension.Active() {
		return domain.NewTransitionError(domain.OpSuspend, s.member, domain.ReasonAlreadySuspended)
	}
	if s.injury.Active() {
		return domain.NewTransitionError(domain.OpSuspend, s.member, domain.ReasonInjured)
	}
	return nil
}

// teamSuspension governs tag teams, titles and stables. Teams carry no
// injury track, so only employment and the suspension track itself gate
// the transition. Member-level aggregation (suspending a tag team whose
// members are individually suspended) is handled by the surrounding
// application, not here.
type teamSuspension struct{}

func (teamSuspension) validateSuspend(s snapshot) error {
	if !s.employment.Active() {
		return domain.NewTransitionError(domain.OpSuspend, s.member, domain.ReasonUnemployed)
	}
	if s.suspension.Active() {
		return domain.NewTransitionError(domain.OpSuspend, s.member, domain.ReasonAlreadySuspended)
	}
	return nil
}

// individualRetirement adds nothing beyond the shared employment
// precondition checked by the validator; an open retirement period is
// rejected so the track never double-opens.
type individualRetirement struct{}

func (individualRetirement) validateRetire(s snapshot) error {
	if s.retirement.Active() {
		return domain.NewTransitionError(domain.OpRetire, s.member, domain.ReasonRetired)
	}
	return nil
}

// teamRetirement mirrors the individual rules. It exists as a separate
// variant because team retirement also ends the activity track, which the
// service applies after validation succeeds.
type teamRetirement struct{}

func (teamRetirement) validateRetire(s snapshot) error {
	if s.retirement.Active() {
		return domain.NewTransitionError(domain.OpRetire, s.member, domain.ReasonRetired)
	}
	return nil
}
