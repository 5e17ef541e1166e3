package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"empdesk/internal/config"
	"empdesk/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisBalanceRepository keeps leave balances in redis. Balances are a
// derived cache, not the system of record: losing them only means the next
// remote refresh repopulates the numbers.
type RedisBalanceRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a redis client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisBalanceRepository(client *redis.Client, ttl time.Duration) *RedisBalanceRepository {
	return &RedisBalanceRepository{
		client: client,
		ttl:    ttl,
	}
}

func balanceKey(userID string) string {
	return fmt.Sprintf("leave_balance:%s", userID)
}

func (r *RedisBalanceRepository) GetBalances(ctx context.Context, userID string) ([]models.LeaveBalance, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, balanceKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balances from redis: %w", err)
	}

	var balances []models.LeaveBalance
	if err := json.Unmarshal([]byte(val), &balances); err != nil {
		return nil, fmt.Errorf("failed to unmarshal balances: %w", err)
	}

	return balances, nil
}

func (r *RedisBalanceRepository) SetBalances(ctx context.Context, userID string, balances []models.LeaveBalance) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(balances)
	if err != nil {
		return fmt.Errorf("failed to marshal balances: %w", err)
	}

	if err := r.client.Set(ctx, balanceKey(userID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set balances in redis: %w", err)
	}

	return nil
}

func (r *RedisBalanceRepository) ClearBalances(ctx context.Context, userID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, balanceKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete balances from redis: %w", err)
	}
	return nil
}

// Ping checks the redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
