package repository

import (
	"context"
	"sync"

	"empdesk/internal/models"
)

// MemoryBalanceRepository is the in-process fallback used when redis is
// unavailable.
type MemoryBalanceRepository struct {
	balances sync.Map
}

func NewMemoryBalanceRepository() *MemoryBalanceRepository {
	return &MemoryBalanceRepository{}
}

func (r *MemoryBalanceRepository) GetBalances(_ context.Context, userID string) ([]models.LeaveBalance, error) {
	val, ok := r.balances.Load(userID)
	if !ok {
		return nil, nil
	}
	stored := val.([]models.LeaveBalance)
	out := make([]models.LeaveBalance, len(stored))
	copy(out, stored)
	return out, nil
}

func (r *MemoryBalanceRepository) SetBalances(_ context.Context, userID string, balances []models.LeaveBalance) error {
	stored := make([]models.LeaveBalance, len(balances))
	copy(stored, balances)
	r.balances.Store(userID, stored)
	return nil
}

func (r *MemoryBalanceRepository) ClearBalances(_ context.Context, userID string) error {
	r.balances.Delete(userID)
	return nil
}
