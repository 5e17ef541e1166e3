package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"empdesk/internal/domain"
	"empdesk/internal/models"
	"empdesk/internal/outbox"
	"empdesk/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LeaveInput is one leave application as entered by the user.
type LeaveInput struct {
	Type        models.LeaveType
	StartDate   string
	EndDate     string
	Reason      string
	Attachments []string
}

// LeaveService files leave requests optimistically and keeps per-type
// balances in the balance repository.
type LeaveService struct {
	leaves   store.Collection[models.LeaveRequest]
	store    *store.Store
	queue    *outbox.Queue
	remote   domain.RemoteClient
	balances domain.BalanceRepository
	online   func() bool
	userID   string
	logger   *zerolog.Logger
}

func NewLeaveService(s *store.Store, queue *outbox.Queue, registry *outbox.Registry, remote domain.RemoteClient, balances domain.BalanceRepository, online func() bool, userID string, logger *zerolog.Logger) *LeaveService {
	svc := &LeaveService{
		leaves:   store.Leaves(s),
		store:    s,
		queue:    queue,
		remote:   remote,
		balances: balances,
		online:   online,
		userID:   userID,
		logger:   logger,
	}
	registry.Register(models.ActionLeave, svc.deliver)
	return svc
}

func (s *LeaveService) deliver(ctx context.Context, payload json.RawMessage) error {
	var leave models.LeaveRequest
	if err := json.Unmarshal(payload, &leave); err != nil {
		return fmt.Errorf("decode leave payload: %w", err)
	}
	if err := s.remote.SubmitLeave(ctx, leave); err != nil {
		return err
	}

	// The record may have advanced locally since enqueue (status updates);
	// only the synced flag is touched here.
	current, err := s.leaves.Get(ctx, leave.LeaveID)
	if err != nil {
		current = leave
	}
	current.Synced = true
	return s.leaves.Put(ctx, current)
}

// Apply validates the request, stores it with status=pending and
// synced=false, enqueues it for delivery and debits the cached balance.
func (s *LeaveService) Apply(ctx context.Context, input LeaveInput) (*models.LeaveRequest, error) {
	if !validLeaveType(input.Type) {
		return nil, ErrInvalidLeaveType
	}
	if input.Reason == "" {
		return nil, ErrReasonRequired
	}
	days, err := leaveDays(input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}

	leave := models.LeaveRequest{
		LeaveID:     uuid.NewString(),
		UserID:      s.userID,
		Type:        input.Type,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Reason:      input.Reason,
		Attachments: input.Attachments,
		Status:      models.LeavePending,
		AppliedAt:   time.Now(),
	}

	if err := s.leaves.Put(ctx, leave); err != nil {
		return nil, err
	}
	if _, err := s.queue.Enqueue(ctx, models.ActionLeave, leave); err != nil {
		return nil, err
	}

	s.debitBalance(ctx, input.Type, days)
	s.logger.Info().Str("leave_id", leave.LeaveID).Str("type", string(leave.Type)).Float64("days", days).Msg("Leave application recorded locally")
	s.drainIfOnline(ctx)

	return &leave, nil
}

// List returns leave requests newest first, repairing any unsynced
// request that has no pending action.
func (s *LeaveService) List(ctx context.Context) ([]models.LeaveRequest, error) {
	leaves, err := s.leaves.All(ctx)
	if err != nil {
		return nil, err
	}

	for i := range leaves {
		if !leaves[i].Synced {
			s.repair(ctx, leaves[i])
		}
	}

	sort.Slice(leaves, func(i, j int) bool {
		return leaves[i].AppliedAt.After(leaves[j].AppliedAt)
	})
	return leaves, nil
}

// Balances reads cached per-type balances. A missing cache yields zeroed
// balances for every known type rather than an error.
func (s *LeaveService) Balances(ctx context.Context) ([]models.LeaveBalance, error) {
	balances, err := s.balances.GetBalances(ctx, s.userID)
	if err != nil {
		return nil, err
	}
	if len(balances) == 0 {
		for _, t := range []models.LeaveType{models.LeaveCasual, models.LeaveSick, models.LeaveEarned, models.LeaveOptional} {
			balances = append(balances, models.LeaveBalance{Type: t})
		}
	}
	return balances, nil
}

func (s *LeaveService) debitBalance(ctx context.Context, leaveType models.LeaveType, days float64) {
	balances, err := s.balances.GetBalances(ctx, s.userID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read cached balances, skipping debit")
		return
	}
	found := false
	for i := range balances {
		if balances[i].Type == leaveType {
			balances[i].Available -= days
			balances[i].Consumed += days
			found = true
			break
		}
	}
	if !found {
		balances = append(balances, models.LeaveBalance{Type: leaveType, Available: -days, Consumed: days})
	}
	if err := s.balances.SetBalances(ctx, s.userID, balances); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write cached balances")
	}
}

func (s *LeaveService) repair(ctx context.Context, leave models.LeaveRequest) {
	queued, err := s.store.HasActionForPayloadID(ctx, models.ActionLeave, "leave_id", leave.LeaveID)
	if err != nil || queued {
		return
	}
	if _, err := s.queue.Enqueue(ctx, models.ActionLeave, leave); err != nil {
		s.logger.Warn().Err(err).Str("leave_id", leave.LeaveID).Msg("Failed to re-enqueue orphaned leave request")
		return
	}
	s.logger.Warn().Str("leave_id", leave.LeaveID).Msg("Re-enqueued unsynced leave request without pending action")
}

func (s *LeaveService) drainIfOnline(ctx context.Context) {
	if s.online != nil && s.online() {
		_ = s.queue.Drain(ctx)
	}
}

func validLeaveType(t models.LeaveType) bool {
	switch t {
	case models.LeaveCasual, models.LeaveSick, models.LeaveEarned, models.LeaveOptional:
		return true
	}
	return false
}

// leaveDays returns the inclusive span in days, validating order and format.
func leaveDays(start, end string) (float64, error) {
	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return 0, ErrInvalidDate
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return 0, ErrInvalidDate
	}
	if to.Before(from) {
		return 0, ErrInvalidDateRange
	}
	return to.Sub(from).Hours()/24 + 1, nil
}
