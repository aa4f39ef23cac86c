package domain

import (
	"errors"
	"fmt"
	"time"
)

// Operation names one roster transition.
type Operation string

const (
	OpEmploy            Operation = "employ"
	OpRelease           Operation = "release"
	OpInjure            Operation = "injure"
	OpHeal              Operation = "heal"
	OpSuspend           Operation = "suspend"
	OpReinstate         Operation = "reinstate"
	OpRetire            Operation = "retire"
	OpUnretire          Operation = "unretire"
	OpDebut             Operation = "debut"
	OpReinstateActivity Operation = "reinstate_activity"
	OpDeactivate        Operation = "deactivate"
)

// Reason is the machine-readable code for one failed transition rule.
// Each validator rule maps to exactly one reason; the first failing rule
// in a validator's ordered sequence determines the code.
type Reason string

const (
	ReasonAlreadyEmployed     Reason = "already_employed"
	ReasonHasFutureEmployment Reason = "has_future_employment"
	ReasonUnemployed          Reason = "unemployed"
	ReasonReleased            Reason = "released"
	ReasonRetired             Reason = "retired"
	ReasonNotRetired          Reason = "not_retired"
	ReasonAlreadyInjured      Reason = "already_injured"
	ReasonNotInjured          Reason = "not_injured"
	ReasonNotInjurable        Reason = "not_injurable"
	ReasonInjured             Reason = "injured"
	ReasonAlreadySuspended    Reason = "already_suspended"
	ReasonNotSuspended        Reason = "not_suspended"
	ReasonSuspended           Reason = "suspended"
	ReasonAlreadyDebuted      Reason = "already_debuted"
	ReasonNeverActivated      Reason = "never_activated"
	ReasonAlreadyActive       Reason = "already_active"
	ReasonNotActive           Reason = "not_active"
	ReasonHasFutureActivation Reason = "has_future_activation"
)

// TransitionResult reports whether a transition would be allowed, with the
// reason code of the first failing rule when it would not.
type TransitionResult struct {
	Allowed bool
	Reason  Reason
}

// TransitionError is a precondition violation: the requested transition is
// not allowed from the member's current state. It is expected, user-facing,
// and always recoverable by changing input or waiting for state to change.
type TransitionError struct {
	Operation Operation
	Member    Member
	Reason    Reason
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s %q: %s", e.Operation, e.Member.Type, e.Member.ID, e.Reason)
}

// NewTransitionError builds a precondition violation for one failed rule.
func NewTransitionError(op Operation, m Member, reason Reason) *TransitionError {
	return &TransitionError{Operation: op, Member: m, Reason: reason}
}

// AlreadyOpenError is an invariant violation: an open or scheduled period
// already exists on the track. Reaching it past validation indicates a
// concurrency bug or corrupted data, not a user mistake.
type AlreadyOpenError struct {
	Member Member
	Track  TrackKind
}

func (e *AlreadyOpenError) Error() string {
	return fmt.Sprintf("%s track for %s %q already has an open period", e.Track, e.Member.Type, e.Member.ID)
}

// NoOpenPeriodError is an invariant violation: a close was attempted on a
// track with no period currently in effect.
type NoOpenPeriodError struct {
	Member Member
	Track  TrackKind
}

func (e *NoOpenPeriodError) Error() string {
	return fmt.Sprintf("%s track for %s %q has no open period to close", e.Track, e.Member.Type, e.Member.ID)
}

// InvalidRangeError is an invariant violation: a period would end before
// it started.
type InvalidRangeError struct {
	Track     TrackKind
	StartedAt time.Time
	EndedAt   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("%s period cannot end at %s before it started at %s",
		e.Track, e.EndedAt.Format(time.RFC3339), e.StartedAt.Format(time.RFC3339))
}

// MultipleOpenPeriodsError is a data-integrity failure: the store holds
// more than one open period for a single (owner, track). The core never
// silently picks one.
type MultipleOpenPeriodsError struct {
	Member Member
	Track  TrackKind
	Count  int
}

func (e *MultipleOpenPeriodsError) Error() string {
	return fmt.Sprintf("%s track for %s %q has %d open periods, want at most 1",
		e.Track, e.Member.Type, e.Member.ID, e.Count)
}

// UnsupportedOwnerTypeError is a classification error: the owner type is
// not in the closed set. It is a configuration mistake, fatal to the
// calling operation.
type UnsupportedOwnerTypeError struct {
	Type OwnerType
}

func (e *UnsupportedOwnerTypeError) Error() string {
	return fmt.Sprintf("unsupported owner type %q", e.Type)
}

// UnsupportedOperationError is a classification error: the operation does
// not apply to the member's category (e.g. debut on a wrestler).
type UnsupportedOperationError struct {
	Operation Operation
	Type      OwnerType
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("operation %q is not supported for owner type %q", e.Operation, e.Type)
}

// ErrStrategyNotRegistered is returned at construction time when the
// strategy registry is missing a mapping. Fail fast at startup, never at
// first runtime use.
var ErrStrategyNotRegistered = errors.New("transition strategy not registered")
