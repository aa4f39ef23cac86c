package domain

// LifecycleState is the state of one track's period lifecycle for one owner,
// derived from its StatusFact. Every track kind shares the same lifecycle:
// nothing recorded yet, an open period scheduled for the future, an open
// period in effect, or only closed history.
type LifecycleState string

const (
	LifecycleUnstarted LifecycleState = "unstarted"
	LifecycleScheduled LifecycleState = "scheduled"
	LifecycleOpen      LifecycleState = "open"
	LifecycleClosed    LifecycleState = "closed"
)

// LifecycleEvent is a mutation attempted against a track.
type LifecycleEvent string

const (
	// LifecycleOpenPeriod starts a new open period on a track.
	LifecycleOpenPeriod LifecycleEvent = "open_period"
	// LifecycleClosePeriod ends the currently effective period.
	LifecycleClosePeriod LifecycleEvent = "close_period"
)

// LifecycleTransition defines a valid period mutation: an event moves a
// track from Src to Dst.
type LifecycleTransition struct {
	Event LifecycleEvent
	Src   LifecycleState
	Dst   LifecycleState
}

// LifecycleTransitions defines every legal period mutation. Opening is only
// legal when the track has no open or scheduled period; closing is only
// legal when a period is currently in effect. This is domain knowledge
// consumed by the FSM adapter, and it is what upholds the at-most-one-open-
// period invariant at the application layer.
var LifecycleTransitions = []LifecycleTransition{
	{Event: LifecycleOpenPeriod, Src: LifecycleUnstarted, Dst: LifecycleOpen},
	{Event: LifecycleOpenPeriod, Src: LifecycleClosed, Dst: LifecycleOpen},
	{Event: LifecycleClosePeriod, Src: LifecycleOpen, Dst: LifecycleClosed},
}
