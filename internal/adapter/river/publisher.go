package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/grapplehq/ringside/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries the data needed to process a status change asynchronously.
// River serializes this as JSON into its job queue table. It includes a snapshot
// of the period at the time the change was published, so the worker never needs
// to query the database.
type EventJobArgs struct {
	Operation string     `json:"operation"`
	OwnerID   string     `json:"owner_id"`
	OwnerType string     `json:"owner_type"`
	Track     string     `json:"track"`
	PeriodID  string     `json:"period_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "status.changed" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a status change as an async job in River.
func (p *Publisher) Publish(ctx context.Context, change domain.StatusChange) error {
	_, err := p.client.Insert(ctx, EventJobArgs{
		Operation: string(change.Operation),
		OwnerID:   change.Member.ID,
		OwnerType: string(change.Member.Type),
		Track:     string(change.Track),
		PeriodID:  change.Period.ID,
		StartedAt: change.Period.StartedAt,
		EndedAt:   change.Period.EndedAt,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing status change job: %w", err)
	}
	return nil
}
