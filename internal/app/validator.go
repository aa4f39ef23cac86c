package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/grapplehq/ringside/internal/domain"
)

// snapshot holds the status facts a validator reads for one member. Facts
// for tracks that do not apply to the member's category stay zero-valued,
// which reads as "no history" everywhere.
type snapshot struct {
	member     domain.Member
	category   domain.Category
	employment domain.StatusFact
	injury     domain.StatusFact
	suspension domain.StatusFact
	retirement domain.StatusFact
	activity   domain.StatusFact
}

// Validator evaluates the per-operation transition rule sequences. Each
// operation has an EnsureCanX form returning a typed TransitionError for
// the first failing rule, and a CanX form that discards the structured
// error into a boolean. The boolean form never re-implements rules; it is
// a facade over the ensure form, so the two can never drift apart.
//
// Validators only read state. On success the caller performs the actual
// period mutation through the status tracks.
type Validator struct {
	tracks     map[domain.TrackKind]*StatusTrack
	suspension map[domain.StrategyID]suspensionStrategy
	retirement map[domain.StrategyID]retirementStrategy
}

// NewValidator builds a validator over the given tracks. It fails when the
// strategy registry is missing a mapping for any category, so wiring
// mistakes surface at startup rather than on first use.
func NewValidator(tracks map[domain.TrackKind]*StatusTrack) (*Validator, error) {
	v := &Validator{
		tracks: tracks,
		suspension: map[domain.StrategyID]suspensionStrategy{
			domain.StrategyIndividualSuspension: individualSuspension{},
			domain.StrategyTeamSuspension:       teamSuspension{},
		},
		retirement: map[domain.StrategyID]retirementStrategy{
			domain.StrategyIndividualRetirement: individualRetirement{},
			domain.StrategyTeamRetirement:       teamRetirement{},
		},
	}

	for _, c := range []domain.Category{domain.CategoryIndividual, domain.CategoryTeam} {
		if _, ok := v.suspension[c.SuspensionStrategy()]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrStrategyNotRegistered, c.SuspensionStrategy())
		}
		if _, ok := v.retirement[c.RetirementStrategy()]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrStrategyNotRegistered, c.RetirementStrategy())
		}
	}

	return v, nil
}

// load assembles the snapshot for one member, reading only the tracks that
// apply to its category.
func (v *Validator) load(ctx context.Context, m domain.Member) (snapshot, error) {
	category, err := domain.CategoryOf(m.Type)
	if err != nil {
		return snapshot{}, err
	}

	s := snapshot{member: m, category: category}
	for _, kind := range category.Tracks() {
		fact, err := v.tracks[kind].Fact(ctx, m)
		if err != nil {
			return snapshot{}, err
		}
		switch kind {
		case domain.TrackEmployment:
			s.employment = fact
		case domain.TrackInjury:
			s.injury = fact
		case domain.TrackSuspension:
			s.suspension = fact
		case domain.TrackRetirement:
			s.retirement = fact
		case domain.TrackActivity:
			s.activity = fact
		}
	}

	return s, nil
}

// allowed translates an ensure-form result into the boolean form:
// precondition violations become false, anything else propagates.
func allowed(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return false, nil
	}
	return false, err
}

// resultOf translates an ensure-form result into a TransitionResult,
// keeping the reason code available to the caller.
func resultOf(err error) (domain.TransitionResult, error) {
	if err == nil {
		return domain.TransitionResult{Allowed: true}, nil
	}
	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return domain.TransitionResult{Allowed: false, Reason: trErr.Reason}, nil
	}
	return domain.TransitionResult{}, err
}

// requireActivity rejects activity-track operations for categories that
// have no activity track. This is a wiring mistake, not a user-facing
// precondition.
func requireActivity(op domain.Operation, s snapshot) error {
	if !s.category.HasActivity() {
		return &domain.UnsupportedOperationError{Operation: op, Type: s.member.Type}
	}
	return nil
}

// --- Employment ---

func (v *Validator) EnsureCanEmploy(ctx context.Context, m domain.Member) error {
	s, err := v.load(ctx, m)
	if err != nil {
		return err
	}

	if s.employment.Active() {
		return domain.NewTransitionError(domain.OpEmploy, m, domain.ReasonAlreadyEmployed)
	}
	if s.employment.Future != nil {
		return domain.NewTransitionError(domain.OpEmploy, m, domain.ReasonHasFutureEmployment)
	}
	return nil
}

func (v *Validator) CanEmploy(ctx context.Context, m domain.Member) (bool, error) {
	return allowed(v.EnsureCanEmploy(ctx, m))
}

func (v *Validator) EnsureCanRelease(ctx context.Context, m domain.Member) error {
	s, err := v.load(ctx, m)
	if err != nil {
		return err
	}

	if !s.employment.Active() {
		return domain.NewTransitionError(domain.OpRelease, m, domain.ReasonUnemployed)
	}
	if s.employment.Future != nil {
		return domain.NewTransitionError(domain.OpRelease, m, domain.ReasonHasFutureEmployment)
	}
	if s.retirement.Active() {
		return domain.NewTransitionError(domain.OpRelease, m, domain.ReasonRetired)
	}
	return nil
}

func (v *Validator) CanRelease(ctx context.Context, m domain.Member) (bool, error) {
	return allowed(v.EnsureCanRelease(ctx, m))
}

// --- Injury ---

func (v *Validator) EnsureCanInjure(ctx context.Context, m domain.Member) error {
	s, err := v.load(ctx, m)
	if err != nil {
		return err
	}

	if !s.category.CanBeInjured() {
		return domain.NewTransitionError(domain.OpInjure, m, domain.ReasonNotInjurable)
	}
	if s.employment.NeverStarted() {
		return domain.NewTransitionError(domain.OpInjure, m, domain.ReasonUnemployed)
	}
	if s.employment.Ended() {
		return domain.NewTransitionError(domain.OpInjure, m, domain.ReasonReleased)
	}
	if s.retirement.Active() {
		return domain.NewTransitionError(domain.OpInjure, m, domain.ReasonRetired)
	}
	if s.employment.Future != nil {
		return domain.NewTransitionError(domain.OpInjure, m, domain.ReasonHasFutureEmployment)
	}
	if s.injury.Active() {
		return domain.NewTransitionError(domain.OpInjure, m, domain.ReasonAlreadyInjured)
	}
	if s.suspension.Active() {
		return domain.NewTransitionError(domain.OpInjure, m, domain.ReasonSuspended)
	}
	return nil
}

func (v *Validator) CanInjure(ctx context.Context, m domain.Member) (bool, error) {
	return allowed(v.EnsureCanInjure(ctx, m))
}

func (v *Validator) EnsureCanHeal(ctx context.Context, m domain.Member) error {
	s, err := v.load(ctx, m)
	if err != nil {
		return err
	}

	if !s.category.CanBeInjured() {
		return domain.NewTransitionError(domain.OpHeal, m, domain.ReasonNotInjurable)
	}
	if !s.injury.Active() {
		return domain.NewTransitionError(domain.OpHeal, m, domain.ReasonNotInjured)
	}
	return nil
}

func (v *Validator) CanHeal(ctx context.Context, m domain.Member) (bool, error) {
	return allowed(v.EnsureCanHeal(ctx, m))
}

// --- Suspension ---

func (v *Validator) EnsureCanSuspend(ctx context.Context, m domain.Member) error {
	s, err := v.load(ctx, m)
	if err != nil {
		return err
	}
	return v.suspension[s.category.SuspensionStrategy()].validateSuspend(s)
}

func (v *Validator) CanSuspend(ctx context.Context, m domain.Member) (bool, error) {
	return allowed(v.EnsureCanSuspend(ctx, m))
}

func (v *Validator) EnsureCanReinstate(ctx context.Context, m domain.Member) error {
	s, err := v.load(ctx, m)
	if err != nil {
		return err
	}

	if s.employment.NeverStarted() {
		return domain.NewTransitionError(domain.OpReinstate, m, domain.ReasonUnemployed)
	}
	if s.employment.Ended() {
		return domain.NewTransitionError(domain.OpReinstate, m, domain.ReasonReleased)
	}
	if s.employment.Future != nil {
		return domain.NewTransitionError(domain.OpReinstate, m, domain.ReasonHasFutureEmployment)
	}
	if s.category.CanBeInjured() && s.injury.Active() {
		return domain.NewTransitionError(domain.OpReinstate, m, domain.ReasonInjured)
	}
	if s.retirement.Active() {
		return domain.NewTransitionError(domain.OpReinstate, m, domain.ReasonRetired)
	}
	if !s.suspension.Active() {
		return domain.NewTransitionError(domain.OpReinstate, m, domain.ReasonNotSuspended)
	}
	return nil
}

func (v *Validator) CanReinstate(ctx context.Context, m domain.Member) (bool, error) {
	return allowed(v.EnsureCanReinstate(ctx, m))
}

// --- Retirement ---

func (v *Validator) EnsureCanRetire(ctx context.Context, m domain.Member) error {
	s, err := v.load(ctx, m)
	if err != nil {
		return err
	}

	// Base precondition for every category: must be in employment.
	if !s.employment.Active() {
		return domain.NewTransitionError(domain.OpRetire, m, domain.ReasonUnemployed)
	}
	return v.retirement[s.category.RetirementStrategy()].validateRetire(s)
}

func (v *Validator) CanRetire(ctx context.Context, m domain.Member) (bool, error) {
	return allowed(v.EnsureCanRetire(ctx, m))
}

func (v *Validator) EnsureCanUnretire(ctx context.Context, m domain.Member) error {
	s, err := v.load(ctx, m)
	if err != nil {
		return err
	}

	if !s.retirement.Active() {
		return domain.NewTransitionError(domain.OpUnretire, m, domain.ReasonNotRetired)
	}
	return nil
}

func (v *Validator) CanUnretire(ctx context.Context, m domain.Member) (bool, error) {
	return allowed(v.EnsureCanUnretire(ctx, m))
}

// --- Activity ---

func (v *Validator) EnsureCanDebut(ctx context.Context, m domain.Member) error {
	s, err := v.load(ctx, m)
	if err != nil {
		return err
	}
	if err := requireActivity(domain.OpDebut, s); err != nil {
		return err
	}

	if s.activity.HasAny {
		return domain.NewTransitionError(domain.OpDebut, m, domain.ReasonAlreadyDebuted)
	}
	if s.retirement.Active() {
		return domain.NewTransitionError(domain.OpDebut, m, domain.ReasonRetired)
	}
	return nil
}

func (v *Validator) CanDebut(ctx context.Context, m domain.Member) (bool, error) {
	return allowed(v.EnsureCanDebut(ctx, m))
}

func (v *Validator) EnsureCanReinstateActivity(ctx context.Context, m domain.Member) error {
	s, err := v.load(ctx, m)
	if err != nil {
		return err
	}
	if err := requireActivity(domain.OpReinstateActivity, s); err != nil {
		return err
	}

	if s.activity.NeverStarted() {
		return domain.NewTransitionError(domain.OpReinstateActivity, m, domain.ReasonNeverActivated)
	}
	if s.activity.Active() {
		return domain.NewTransitionError(domain.OpReinstateActivity, m, domain.ReasonAlreadyActive)
	}
	if s.retirement.Active() {
		return domain.NewTransitionError(domain.OpReinstateActivity, m, domain.ReasonRetired)
	}
	return nil
}

func (v *Validator) CanReinstateActivity(ctx context.Context, m domain.Member) (bool, error) {
	return allowed(v.EnsureCanReinstateActivity(ctx, m))
}

func (v *Validator) EnsureCanDeactivate(ctx context.Context, m domain.Member) error {
	s, err := v.load(ctx, m)
	if err != nil {
		return err
	}
	if err := requireActivity(domain.OpDeactivate, s); err != nil {
		return err
	}

	if s.activity.NeverStarted() {
		return domain.NewTransitionError(domain.OpDeactivate, m, domain.ReasonNeverActivated)
	}
	if !s.activity.Active() {
		return domain.NewTransitionError(domain.OpDeactivate, m, domain.ReasonNotActive)
	}
	if s.activity.Future != nil {
		return domain.NewTransitionError(domain.OpDeactivate, m, domain.ReasonHasFutureActivation)
	}
	if s.retirement.Active() {
		return domain.NewTransitionError(domain.OpDeactivate, m, domain.ReasonRetired)
	}
	return nil
}

func (v *Validator) CanDeactivate(ctx context.Context, m domain.Member) (bool, error) {
	return allowed(v.EnsureCanDeactivate(ctx, m))
}

// Ensure dispatches an operation to its rule sequence. Unknown operations
// are classification errors.
func (v *Validator) Ensure(ctx context.Context, op domain.Operation, m domain.Member) error {
	switch op {
	case domain.OpEmploy:
		return v.EnsureCanEmploy(ctx, m)
	case domain.OpRelease:
		return v.EnsureCanRelease(ctx, m)
	case domain.OpInjure:
		return v.EnsureCanInjure(ctx, m)
	case domain.OpHeal:
		return v.EnsureCanHeal(ctx, m)
	case domain.OpSuspend:
		return v.EnsureCanSuspend(ctx, m)
	case domain.OpReinstate:
		return v.EnsureCanReinstate(ctx, m)
	case domain.OpRetire:
		return v.EnsureCanRetire(ctx, m)
	case domain.OpUnretire:
		return v.EnsureCanUnretire(ctx, m)
	case domain.OpDebut:
		return v.EnsureCanDebut(ctx, m)
	case domain.OpReinstateActivity:
		return v.EnsureCanReinstateActivity(ctx, m)
	case domain.OpDeactivate:
		return v.EnsureCanDeactivate(ctx, m)
	default:
		return &domain.UnsupportedOperationError{Operation: op, Type: m.Type}
	}
}

// Check runs an operation's rules and reports the outcome with its reason
// code, without raising precondition violations as errors.
func (v *Validator) Check(ctx context.Context, op domain.Operation, m domain.Member) (domain.TransitionResult, error) {
	return resultOf(v.Ensure(ctx, op, m))
}
