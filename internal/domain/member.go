package domain

// OwnerType identifies which kind of roster entity owns a set of status
// tracks. The set is closed; CategoryOf rejects anything else.
type OwnerType string

const (
	OwnerWrestler OwnerType = "wrestler"
	OwnerManager  OwnerType = "manager"
	OwnerReferee  OwnerType = "referee"
	OwnerTagTeam  OwnerType = "tag_team"
	OwnerTitle    OwnerType = "title"
	OwnerStable   OwnerType = "stable"
)

// Member identifies one roster entity. Members are not persisted by this
// core; periods reference them by (ID, Type).
type Member struct {
	ID   string
	Type OwnerType
}

// Category classifies roster members into people and team-like entities.
// It determines which tracks are legal for an owner and which validation
// strategy governs suspension and retirement.
type Category string

const (
	CategoryIndividual Category = "individual"
	CategoryTeam       Category = "team"
)

var categories = map[OwnerType]Category{
	OwnerWrestler: CategoryIndividual,
	OwnerManager:  CategoryIndividual,
	OwnerReferee:  CategoryIndividual,
	OwnerTagTeam:  CategoryTeam,
	OwnerTitle:    CategoryTeam,
	OwnerStable:   CategoryTeam,
}

// CategoryOf maps an owner type to its category. It is total over the
// closed owner-type set and returns UnsupportedOwnerTypeError otherwise.
func CategoryOf(t OwnerType) (Category, error) {
	c, ok := categories[t]
	if !ok {
		return "", &UnsupportedOwnerTypeError{Type: t}
	}
	return c, nil
}

// IsIndividual reports whether the category covers single people.
func (c Category) IsIndividual() bool { return c == CategoryIndividual }

// IsTeam reports whether the category covers team-like entities.
func (c Category) IsTeam() bool { return c == CategoryTeam }

// CanBeInjured reports whether the injury track applies. Only people get
// injured; tag teams, titles and stables never carry an injury track.
func (c Category) CanBeInjured() bool { return c.IsIndividual() }

// CanBeEmployed reports whether the employment track applies. Every member
// type in this domain is employable, titles and stables included.
func (c Category) CanBeEmployed() bool { return c.IsIndividual() || c.IsTeam() }

// CanBeSuspended reports whether the suspension track applies.
func (c Category) CanBeSuspended() bool { return c.IsIndividual() || c.IsTeam() }

// CanBeRetired reports whether the retirement track applies.
func (c Category) CanBeRetired() bool { return c.IsIndividual() || c.IsTeam() }

// HasActivity reports whether the activity (debut/deactivation) track
// applies. Activity is a team-entity concept.
func (c Category) HasActivity() bool { return c.IsTeam() }

// Tracks returns the track kinds that are legal for the category.
func (c Category) Tracks() []TrackKind {
	tracks := []TrackKind{TrackEmployment, TrackSuspension, TrackRetirement}
	if c.CanBeInjured() {
		tracks = append(tracks, TrackInjury)
	}
	if c.HasActivity() {
		tracks = append(tracks, TrackActivity)
	}
	return tracks
}

// Supports reports whether the given track kind applies to the category.
func (c Category) Supports(kind TrackKind) bool {
	for _, k := range c.Tracks() {
		if k == kind {
			return true
		}
	}
	return false
}

// StrategyID names one transition-validation strategy. Strategies are
// resolved to implementations via an explicit registry at service
// construction, never via string class resolution.
type StrategyID string

const (
	StrategyIndividualSuspension StrategyID = "individual_suspension"
	StrategyTeamSuspension       StrategyID = "team_suspension"
	StrategyIndividualRetirement StrategyID = "individual_retirement"
	StrategyTeamRetirement       StrategyID = "team_retirement"
)

// SuspensionStrategy returns the strategy governing suspension transitions
// for the category.
func (c Category) SuspensionStrategy() StrategyID {
	if c.IsTeam() {
		return StrategyTeamSuspension
	}
	return StrategyIndividualSuspension
}

// RetirementStrategy returns the strategy governing retirement transitions
// for the category.
func (c Category) RetirementStrategy() StrategyID {
	if c.IsTeam() {
		return StrategyTeamRetirement
	}
	return StrategyIndividualRetirement
}
