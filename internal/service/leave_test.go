package service

import (
	"context"
	"testing"
	"time"

	"empdesk/internal/models"
	"empdesk/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLeaveService(t *testing.T, env *testEnv) (*LeaveService, *repository.MemoryBalanceRepository) {
	t.Helper()
	balances := repository.NewMemoryBalanceRepository()
	svc := NewLeaveService(env.store, env.queue, env.registry, env.remote, balances, env.isOnline, "u-1", testLogger())
	return svc, balances
}

func validLeave() LeaveInput {
	return LeaveInput{
		Type:      models.LeaveCasual,
		StartDate: "2026-09-07",
		EndDate:   "2026-09-09",
		Reason:    "family event",
	}
}

func TestApplyLeaveOffline(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newLeaveService(t, env)
	ctx := context.Background()

	leave, err := svc.Apply(ctx, validLeave())
	require.NoError(t, err)

	assert.Equal(t, models.LeavePending, leave.Status)
	assert.False(t, leave.Synced)
	assert.Equal(t, 1, env.depth(t))
	assert.Empty(t, env.remote.leaves)
}

func TestApplyLeaveDebitsBalance(t *testing.T) {
	env := newTestEnv(t)
	svc, balances := newLeaveService(t, env)
	ctx := context.Background()

	require.NoError(t, balances.SetBalances(ctx, "u-1", []models.LeaveBalance{
		{Type: models.LeaveCasual, Available: 10},
		{Type: models.LeaveSick, Available: 5},
	}))

	_, err := svc.Apply(ctx, validLeave())
	require.NoError(t, err)

	got, err := balances.GetBalances(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 7.0, got[0].Available, 0.001, "three inclusive days debited")
	assert.InDelta(t, 3.0, got[0].Consumed, 0.001)
	assert.InDelta(t, 5.0, got[1].Available, 0.001, "other types untouched")
}

func TestApplyLeaveValidation(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newLeaveService(t, env)
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*LeaveInput)
		wantErr error
	}{
		{"unknown type", func(in *LeaveInput) { in.Type = "sabbatical" }, ErrInvalidLeaveType},
		{"empty reason", func(in *LeaveInput) { in.Reason = "" }, ErrReasonRequired},
		{"end before start", func(in *LeaveInput) { in.EndDate = "2026-09-01" }, ErrInvalidDateRange},
		{"garbled date", func(in *LeaveInput) { in.StartDate = "07/09/2026" }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validLeave()
			tc.mutate(&input)
			_, err := svc.Apply(ctx, input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	assert.Equal(t, 0, env.depth(t))
}

func TestLeaveDeliveryPreservesLocalStatus(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newLeaveService(t, env)
	ctx := context.Background()

	leave, err := svc.Apply(ctx, validLeave())
	require.NoError(t, err)

	// Local status moved on before the queued copy was delivered.
	updated := *leave
	updated.Status = models.LeaveApproved
	leaves := svc.leaves
	require.NoError(t, leaves.Put(ctx, updated))

	require.NoError(t, env.queue.Drain(ctx))

	got, err := leaves.Get(ctx, leave.LeaveID)
	require.NoError(t, err)
	assert.True(t, got.Synced)
	assert.Equal(t, models.LeaveApproved, got.Status, "delivery must not roll back newer local fields")
}

func TestLeaveListNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newLeaveService(t, env)
	ctx := context.Background()

	first, err := svc.Apply(ctx, validLeave())
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := svc.Apply(ctx, validLeave())
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.LeaveID, list[0].LeaveID)
	assert.Equal(t, first.LeaveID, list[1].LeaveID)
}

func TestBalancesDefaultToZeroedTypes(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newLeaveService(t, env)

	balances, err := svc.Balances(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 4)
	for _, b := range balances {
		assert.Zero(t, b.Available)
		assert.Zero(t, b.Consumed)
	}
}
