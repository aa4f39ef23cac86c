package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/grapplehq/ringside/internal/domain"
)

// Compile-time check: Validator implements domain.LifecycleValidator.
var _ domain.LifecycleValidator = (*Validator)(nil)

// events converts domain.LifecycleTransitions into looplab/fsm EventDesc
// format. It consolidates transitions with the same event+destination into
// a single EventDesc with multiple source states (opening a period is legal
// both from "unstarted" and from "closed").
var events = buildEvents()

func buildEvents() []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range domain.LifecycleTransitions {
		k := key{event: string(t.Event), dst: string(t.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Validator implements domain.LifecycleValidator using looplab/fsm.
// It creates a short-lived FSM instance per Apply call, initialized with
// the track's current lifecycle state. This is necessary because
// looplab/fsm is stateful (it tracks the current state internally).
type Validator struct{}

// New creates a new FSM-backed period-lifecycle validator.
func New() *Validator {
	return &Validator{}
}

// Apply checks if the given period mutation is valid from the current
// lifecycle state and returns the destination state. Returns a
// domain.LifecycleError if the mutation is not allowed.
func (v *Validator) Apply(ctx context.Context, current domain.LifecycleState, event domain.LifecycleEvent) (domain.LifecycleState, error) {
	machine := loopfsm.NewFSM(string(current), events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &noTransition) {
			return "", &domain.LifecycleError{
				Event:   event,
				Current: current,
			}
		}
		return "", err
	}

	return domain.LifecycleState(machine.Current()), nil
}
