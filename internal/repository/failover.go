package repository

import (
	"context"
	"sync/atomic"
	"time"

	"empdesk/internal/domain"
	"empdesk/internal/models"

	"github.com/rs/zerolog"
)

// FailoverBalanceRepository prefers the primary (redis) and falls back to
// the in-memory repository when it fails, retrying the primary after a
// minute.
type FailoverBalanceRepository struct {
	primary   domain.BalanceRepository
	fallback  domain.BalanceRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverBalanceRepository(primary, fallback domain.BalanceRepository, logger *zerolog.Logger) *FailoverBalanceRepository {
	return &FailoverBalanceRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverBalanceRepository) GetBalances(ctx context.Context, userID string) ([]models.LeaveBalance, error) {
	if !r.isDown.Load() {
		balances, err := r.primary.GetBalances(ctx, userID)
		if err == nil {
			return balances, nil
		}
		r.markDown(err)
	}

	// Probe the primary again after a minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		balances, err := r.primary.GetBalances(ctx, userID)
		if err == nil {
			r.isDown.Store(false)
			return balances, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetBalances(ctx, userID)
}

func (r *FailoverBalanceRepository) SetBalances(ctx context.Context, userID string, balances []models.LeaveBalance) error {
	if !r.isDown.Load() {
		err := r.primary.SetBalances(ctx, userID, balances)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetBalances(ctx, userID, balances)
}

func (r *FailoverBalanceRepository) ClearBalances(ctx context.Context, userID string) error {
	if !r.isDown.Load() {
		err := r.primary.ClearBalances(ctx, userID)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.ClearBalances(ctx, userID)
}

func (r *FailoverBalanceRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary balance repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}
