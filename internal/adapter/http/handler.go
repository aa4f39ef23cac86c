package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/grapplehq/ringside/internal/app"
	"github.com/grapplehq/ringside/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// PeriodResponse is the API representation of one status period.
type PeriodResponse struct {
	ID        string  `json:"id" doc:"Unique identifier"`
	OwnerID   string  `json:"owner_id" doc:"Roster member identifier"`
	OwnerType string  `json:"owner_type" doc:"Roster member type"`
	Track     string  `json:"track" doc:"Status track"`
	StartedAt string  `json:"started_at" doc:"Period start (ISO 8601)"`
	EndedAt   *string `json:"ended_at,omitempty" doc:"Period end, absent while open (ISO 8601)"`
}

func toPeriodResponse(p domain.Period) PeriodResponse {
	resp := PeriodResponse{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		OwnerType: string(p.OwnerType),
		Track:     string(p.Track),
		StartedAt: p.StartedAt.UTC().Format(timeFormat),
	}
	if p.EndedAt != nil {
		ended := p.EndedAt.UTC().Format(timeFormat)
		resp.EndedAt = &ended
	}
	return resp
}

func toPeriodResponsePtr(p *domain.Period) *PeriodResponse {
	if p == nil {
		return nil
	}
	resp := toPeriodResponse(*p)
	return &resp
}

// MemberParams are the path parameters shared by all roster endpoints.
type MemberParams struct {
	Type string `path:"type" doc:"Roster member type" enum:"wrestler,manager,referee,tag_team,title,stable"`
	ID   string `path:"id" doc:"Roster member identifier"`
}

func (p MemberParams) member() domain.Member {
	return domain.Member{ID: p.ID, Type: domain.OwnerType(p.Type)}
}

// --- Apply Transition ---

type TransitionInput struct {
	MemberParams
	Body struct {
		Operation   string     `json:"operation" doc:"Status transition to apply" enum:"employ,release,injure,heal,suspend,reinstate,retire,unretire,debut,reinstate_activity,deactivate"`
		EffectiveAt *time.Time `json:"effective_at,omitempty" doc:"When the transition takes effect; defaults to now"`
	}
}

type TransitionOutput struct {
	Body PeriodResponse
}

// --- Check Transition ---

type CheckInput struct {
	MemberParams
	Operation string `path:"operation" doc:"Status transition to check" enum:"employ,release,injure,heal,suspend,reinstate,retire,unretire,debut,reinstate_activity,deactivate"`
}

type CheckOutput struct {
	Body struct {
		Allowed bool   `json:"allowed" doc:"Whether the transition would succeed"`
		Reason  string `json:"reason,omitempty" doc:"First failed rule when not allowed"`
	}
}

// --- Status ---

type StatusInput struct {
	MemberParams
}

type TrackStatusResponse struct {
	Track   string          `json:"track" doc:"Status track"`
	Current *PeriodResponse `json:"current,omitempty" doc:"Period open as of now"`
	Future  *PeriodResponse `json:"future,omitempty" doc:"Scheduled open period"`
	Past    *PeriodResponse `json:"past,omitempty" doc:"Most recently closed period"`
	First   *PeriodResponse `json:"first,omitempty" doc:"Earliest recorded period"`
	Active  bool            `json:"active" doc:"Whether the track is active as of now"`
}

type StatusOutput struct {
	Body struct {
		Tracks []TrackStatusResponse `json:"tracks"`
	}
}

// --- Eligibility ---

type EligibilityInput struct {
	MemberParams
}

type EligibilityOutput struct {
	Body struct {
		Bookable           bool `json:"bookable" doc:"Employed, not suspended, not injured where applicable"`
		NotCurrentlyActive bool `json:"not_currently_active" doc:"Team has no active period as of now"`
		Disbanded          bool `json:"disbanded" doc:"Team has activity history but no open activity"`
	}
}

// Register adds all roster API routes to the Huma API.
func Register(api huma.API, svc *app.RosterService) {
	huma.Register(api, huma.Operation{
		OperationID: "apply-transition",
		Method:      http.MethodPost,
		Path:        "/api/v1/roster/{type}/{id}/transitions",
		Summary:     "Apply a status transition",
		Tags:        []string{"Roster"},
	}, func(ctx context.Context, input *TransitionInput) (*TransitionOutput, error) {
		var at time.Time
		if input.Body.EffectiveAt != nil {
			at = *input.Body.EffectiveAt
		}
		period, err := svc.Apply(ctx, domain.Operation(input.Body.Operation), input.member(), at)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TransitionOutput{Body: toPeriodResponse(period)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "check-transition",
		Method:      http.MethodGet,
		Path:        "/api/v1/roster/{type}/{id}/transitions/{operation}/check",
		Summary:     "Check whether a status transition would succeed",
		Tags:        []string{"Roster"},
	}, func(ctx context.Context, input *CheckInput) (*CheckOutput, error) {
		result, err := svc.Validator().Check(ctx, domain.Operation(input.Operation), input.member())
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &CheckOutput{}
		out.Body.Allowed = result.Allowed
		out.Body.Reason = string(result.Reason)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/roster/{type}/{id}/status",
		Summary:     "Get per-track status",
		Tags:        []string{"Roster"},
	}, func(ctx context.Context, input *StatusInput) (*StatusOutput, error) {
		statuses, err := svc.Status(ctx, input.member())
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &StatusOutput{}
		out.Body.Tracks = make([]TrackStatusResponse, len(statuses))
		for i, st := range statuses {
			out.Body.Tracks[i] = TrackStatusResponse{
				Track:   string(st.Kind),
				Current: toPeriodResponsePtr(st.Fact.Current),
				Future:  toPeriodResponsePtr(st.Fact.Future),
				Past:    toPeriodResponsePtr(st.Fact.MostRecentPast),
				First:   toPeriodResponsePtr(st.First),
				Active:  st.Fact.Active(),
			}
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-eligibility",
		Method:      http.MethodGet,
		Path:        "/api/v1/roster/{type}/{id}/eligibility",
		Summary:     "Get derived booking eligibility",
		Tags:        []string{"Roster"},
	}, func(ctx context.Context, input *EligibilityInput) (*EligibilityOutput, error) {
		e, err := svc.EligibilityFor(ctx, input.member())
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &EligibilityOutput{}
		out.Body.Bookable = e.Bookable
		out.Body.NotCurrentlyActive = e.NotCurrentlyActive
		out.Body.Disbanded = e.Disbanded
		return out, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	var ownerErr *domain.UnsupportedOwnerTypeError
	if errors.As(err, &ownerErr) {
		return huma.Error400BadRequest(ownerErr.Error())
	}

	var opErr *domain.UnsupportedOperationError
	if errors.As(err, &opErr) {
		return huma.Error400BadRequest(opErr.Error())
	}

	var rangeErr *domain.InvalidRangeError
	if errors.As(err, &rangeErr) {
		return huma.Error422UnprocessableEntity(rangeErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
