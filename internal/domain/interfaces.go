package domain

import (
	"context"

	"empdesk/internal/models"
)

// RemoteClient is the delivery capability handlers use. One method per
// action kind; the remote side deduplicates on client-generated IDs.
type RemoteClient interface {
	SubmitPunch(ctx context.Context, punch models.PunchRecord) error
	SubmitLeave(ctx context.Context, leave models.LeaveRequest) error
	SubmitMood(ctx context.Context, entry models.MoodEntry) error
	SubmitTicket(ctx context.Context, ticket models.Ticket) error
	FetchPayslip(ctx context.Context, year, month int) (*models.Payslip, error)
	Ping(ctx context.Context) error
}

// BalanceRepository caches leave balances outside the local store.
type BalanceRepository interface {
	GetBalances(ctx context.Context, userID string) ([]models.LeaveBalance, error)
	SetBalances(ctx context.Context, userID string, balances []models.LeaveBalance) error
	ClearBalances(ctx context.Context, userID string) error
}

// EventPublisher fans out in-process notifications.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Drainer triggers delivery of queued actions.
type Drainer interface {
	Drain(ctx context.Context) error
}

// OnlineStatus reports current connectivity to the backend.
type OnlineStatus interface {
	Online() bool
}
