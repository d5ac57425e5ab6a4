// Package cache keeps short-lived data in Redis: the available-car listing
// and the ids of tokens revoked at logout.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"carrental/internal/db"
)

const availableCarsKey = "cars:available"

func NewClient(ctx context.Context, addr, password string, dbIndex int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       dbIndex,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

type Store struct {
	client     *redis.Client
	catalogTTL time.Duration
}

func NewStore(client *redis.Client, catalogTTL time.Duration) *Store {
	return &Store{client: client, catalogTTL: catalogTTL}
}

// GetAvailableCars returns the cached listing. ok is false on a miss.
func (s *Store) GetAvailableCars(ctx context.Context) ([]db.Car, bool, error) {
	val, err := s.client.Get(ctx, availableCarsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get available cars: %w", err)
	}
	var cars []db.Car
	if err := json.Unmarshal(val, &cars); err != nil {
		return nil, false, fmt.Errorf("decode available cars: %w", err)
	}
	return cars, true, nil
}

func (s *Store) SetAvailableCars(ctx context.Context, cars []db.Car) error {
	data, err := json.Marshal(cars)
	if err != nil {
		return fmt.Errorf("encode available cars: %w", err)
	}
	if err := s.client.Set(ctx, availableCarsKey, data, s.catalogTTL).Err(); err != nil {
		return fmt.Errorf("set available cars: %w", err)
	}
	return nil
}

func (s *Store) InvalidateCars(ctx context.Context) error {
	if err := s.client.Del(ctx, availableCarsKey).Err(); err != nil {
		return fmt.Errorf("invalidate available cars: %w", err)
	}
	return nil
}

func revokedKey(tokenID string) string {
	return "revoked:" + tokenID
}

// Revoke denies a token until it would have expired anyway.
func (s *Store) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKey(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}
