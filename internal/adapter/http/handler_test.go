package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/grapplehq/ringside/internal/adapter/fsm"
	adapter "github.com/grapplehq/ringside/internal/adapter/http"
	"github.com/grapplehq/ringside/internal/adapter/sqlite"
	"github.com/grapplehq/ringside/internal/app"
	"github.com/grapplehq/ringside/internal/domain"
)

// noopPublisher is a no-op EventPublisher for tests.
type noopPublisher struct{}

func (p *noopPublisher) Publish(_ context.Context, _ domain.StatusChange) error {
	return nil
}

// newTestServer creates a full-stack httptest.Server with SQLite in-memory.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	svc, err := app.NewRosterService(repo, &noopPublisher{}, fsm.New())
	if err != nil {
		t.Fatalf("creating roster service: %v", err)
	}

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("ringside", "0.1.0"))
	adapter.Register(api, svc)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

// doRequest performs an HTTP request with context (avoids noctx linter).
func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}

	return resp
}

// mustTransition applies a transition via the API and returns the period.
func mustTransition(t *testing.T, srv *httptest.Server, ownerType, ownerID, operation string) adapter.PeriodResponse {
	t.Helper()

	body := fmt.Sprintf(`{"operation":%q}`, operation)
	url := fmt.Sprintf("%s/api/v1/roster/%s/%s/transitions", srv.URL, ownerType, ownerID)
	resp := doRequest(t, http.MethodPost, url, body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s/%s: status = %d, want %d: %s", operation, ownerType, ownerID, resp.StatusCode, http.StatusOK, raw)
	}

	var period adapter.PeriodResponse
	if err := json.NewDecoder(resp.Body).Decode(&period); err != nil {
		t.Fatalf("decode period: %v", err)
	}

	return period
}

// --- Transitions ---

func TestTransition_Employ(t *testing.T) {
	srv := newTestServer(t)

	period := mustTransition(t, srv, "wrestler", "w-1", "employ")

	if period.ID == "" {
		t.Error("ID should not be empty")
	}
	if period.OwnerID != "w-1" {
		t.Errorf("OwnerID = %q, want %q", period.OwnerID, "w-1")
	}
	if period.OwnerType != "wrestler" {
		t.Errorf("OwnerType = %q, want %q", period.OwnerType, "wrestler")
	}
	if period.Track != "employment" {
		t.Errorf("Track = %q, want %q", period.Track, "employment")
	}
	if period.StartedAt == "" {
		t.Error("StartedAt should not be empty")
	}
	if period.EndedAt != nil {
		t.Error("EndedAt should be absent for an open period")
	}
}

func TestTransition_Release_ClosesPeriod(t *testing.T) {
	srv := newTestServer(t)

	mustTransition(t, srv, "wrestler", "w-1", "employ")
	period := mustTransition(t, srv, "wrestler", "w-1", "release")

	if period.EndedAt == nil {
		t.Error("released employment should carry an end date")
	}
}

func TestTransition_Rejected(t *testing.T) {
	srv := newTestServer(t)

	// Suspending an unemployed wrestler fails the first rule.
	url := srv.URL + "/api/v1/roster/wrestler/w-1/transitions"
	resp := doRequest(t, http.MethodPost, url, `{"operation":"suspend"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestTransition_InjureTitle_Rejected(t *testing.T) {
	srv := newTestServer(t)

	mustTransition(t, srv, "title", "t-1", "employ")

	url := srv.URL + "/api/v1/roster/title/t-1/transitions"
	resp := doRequest(t, http.MethodPost, url, `{"operation":"injure"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestTransition_UnknownOwnerType(t *testing.T) {
	srv := newTestServer(t)

	url := srv.URL + "/api/v1/roster/mascot/m-1/transitions"
	resp := doRequest(t, http.MethodPost, url, `{"operation":"employ"}`)
	defer resp.Body.Close()

	// Rejected by the path enum before reaching the service.
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestTransition_UnknownOperation(t *testing.T) {
	srv := newTestServer(t)

	url := srv.URL + "/api/v1/roster/wrestler/w-1/transitions"
	resp := doRequest(t, http.MethodPost, url, `{"operation":"promote"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestTransition_EffectiveAt(t *testing.T) {
	srv := newTestServer(t)

	url := srv.URL + "/api/v1/roster/wrestler/w-1/transitions"
	resp := doRequest(t, http.MethodPost, url, `{"operation":"employ","effective_at":"2024-06-01T12:00:00Z"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var period adapter.PeriodResponse
	if err := json.NewDecoder(resp.Body).Decode(&period); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if period.StartedAt != "2024-06-01T12:00:00Z" {
		t.Errorf("StartedAt = %q, want %q", period.StartedAt, "2024-06-01T12:00:00Z")
	}
}

// --- Check ---

func TestCheck_Allowed(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/roster/wrestler/w-1/transitions/employ/check", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var out struct {
		Allowed bool   `json:"allowed"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !out.Allowed {
		t.Errorf("Allowed = false, want true (reason %q)", out.Reason)
	}
}

func TestCheck_BlockedWithReason(t *testing.T) {
	srv := newTestServer(t)

	mustTransition(t, srv, "wrestler", "w-1", "employ")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/roster/wrestler/w-1/transitions/employ/check", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var out struct {
		Allowed bool   `json:"allowed"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if out.Allowed {
		t.Error("Allowed = true, want false")
	}
	if out.Reason != "already_employed" {
		t.Errorf("Reason = %q, want %q", out.Reason, "already_employed")
	}
}

// --- Status ---

func TestStatus(t *testing.T) {
	srv := newTestServer(t)

	mustTransition(t, srv, "wrestler", "w-1", "employ")
	mustTransition(t, srv, "wrestler", "w-1", "suspend")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/roster/wrestler/w-1/status", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var out struct {
		Tracks []adapter.TrackStatusResponse `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Individual categories carry employment, injury, suspension, retirement.
	if len(out.Tracks) != 4 {
		t.Fatalf("got %d tracks, want 4", len(out.Tracks))
	}

	byTrack := make(map[string]adapter.TrackStatusResponse, len(out.Tracks))
	for _, tr := range out.Tracks {
		byTrack[tr.Track] = tr
	}

	if !byTrack["employment"].Active {
		t.Error("employment should be active")
	}
	if !byTrack["suspension"].Active {
		t.Error("suspension should be active")
	}
	if byTrack["injury"].Active {
		t.Error("injury should not be active")
	}
	if byTrack["employment"].Current == nil {
		t.Error("employment should expose a current period")
	}
	if byTrack["employment"].First == nil {
		t.Error("employment should expose a first period")
	}
}

func TestStatus_TeamTracks(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/roster/stable/s-1/status", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var out struct {
		Tracks []adapter.TrackStatusResponse `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Team categories carry employment, suspension, retirement, activity.
	if len(out.Tracks) != 4 {
		t.Fatalf("got %d tracks, want 4", len(out.Tracks))
	}
	found := false
	for _, tr := range out.Tracks {
		if tr.Track == "activity" {
			found = true
		}
		if tr.Track == "injury" {
			t.Error("team status should not include an injury track")
		}
	}
	if !found {
		t.Error("team status should include an activity track")
	}
}

// --- Eligibility ---

func TestEligibility_Bookable(t *testing.T) {
	srv := newTestServer(t)

	mustTransition(t, srv, "wrestler", "w-1", "employ")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/roster/wrestler/w-1/eligibility", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var out struct {
		Bookable bool `json:"bookable"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !out.Bookable {
		t.Error("employed wrestler should be bookable")
	}
}

func TestEligibility_SuspendedNotBookable(t *testing.T) {
	srv := newTestServer(t)

	mustTransition(t, srv, "wrestler", "w-1", "employ")
	mustTransition(t, srv, "wrestler", "w-1", "suspend")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/roster/wrestler/w-1/eligibility", "")
	defer resp.Body.Close()

	var out struct {
		Bookable bool `json:"bookable"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if out.Bookable {
		t.Error("suspended wrestler should not be bookable")
	}
}

func TestEligibility_DisbandedStable(t *testing.T) {
	srv := newTestServer(t)

	mustTransition(t, srv, "stable", "s-1", "employ")
	mustTransition(t, srv, "stable", "s-1", "debut")
	mustTransition(t, srv, "stable", "s-1", "deactivate")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/roster/stable/s-1/eligibility", "")
	defer resp.Body.Close()

	var out struct {
		Bookable           bool `json:"bookable"`
		NotCurrentlyActive bool `json:"not_currently_active"`
		Disbanded          bool `json:"disbanded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !out.NotCurrentlyActive {
		t.Error("deactivated stable should be not currently active")
	}
	if !out.Disbanded {
		t.Error("deactivated stable should be disbanded")
	}
}
