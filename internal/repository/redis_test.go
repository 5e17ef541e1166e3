package repository

import (
	"context"
	"testing"
	"time"

	"empdesk/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBalanceRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	repo := NewRedisBalanceRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetBalances", func(t *testing.T) {
		balances := []models.LeaveBalance{
			{Type: models.LeaveCasual, Available: 12, Consumed: 2},
			{Type: models.LeaveSick, Available: 8, Consumed: 0},
		}

		err := repo.SetBalances(ctx, "usr-1001", balances)
		require.NoError(t, err)

		got, err := repo.GetBalances(ctx, "usr-1001")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, models.LeaveCasual, got[0].Type)
		assert.Equal(t, 2.0, got[0].Consumed)
	})

	t.Run("GetNonExistent", func(t *testing.T) {
		got, err := repo.GetBalances(ctx, "usr-9999")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearBalances", func(t *testing.T) {
		require.NoError(t, repo.SetBalances(ctx, "usr-1002", []models.LeaveBalance{{Type: models.LeaveEarned, Available: 5}}))

		err := repo.ClearBalances(ctx, "usr-1002")
		require.NoError(t, err)

		got, _ := repo.GetBalances(ctx, "usr-1002")
		assert.Nil(t, got)
	})
}

func TestRedisBalanceRepository_NilClient(t *testing.T) {
	repo := NewRedisBalanceRepository(nil, time.Hour)
	ctx := context.Background()

	_, err := repo.GetBalances(ctx, "usr-1001")
	assert.Error(t, err)
	assert.Error(t, repo.SetBalances(ctx, "usr-1001", nil))
	assert.Error(t, repo.ClearBalances(ctx, "usr-1001"))
}
