// Package cache реализует кеш решений о доступе: локальный TTL-кеш с фоновым обновлением,
// счётчики версий данных и необязательный общий уровень в redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/course-entitlement/internal/config"
	"github.com/magabrotheeeer/course-entitlement/internal/models"
)

const decisionPrefix = "entitlement:d:"

// NewRedisClient создаёт клиента redis и проверяет соединение.
func NewRedisClient(ctx context.Context, cfg config.RedisConnection) (*redis.Client, error) {
	const op = "cache.NewRedisClient"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return db, nil
}

// storedDecision запись общего уровня. Срок хранится рядом с решением,
// чтобы локальная копия не пережила оригинал.
type storedDecision struct {
	Decision  models.AccessDecision `json:"decision"`
	StoredAt  time.Time             `json:"stored_at"`
	ExpiresAt time.Time             `json:"expires_at"`
}

// RedisShared общий уровень кеша решений в redis.
type RedisShared struct {
	Db *redis.Client
}

// NewRedisShared создаёт общий уровень поверх клиента.
func NewRedisShared(db *redis.Client) *RedisShared {
	return &RedisShared{Db: db}
}

// Get читает решение по ключу. Отсутствие ключа не является ошибкой.
func (c *RedisShared) Get(ctx context.Context, key Key) (Entry, bool, error) {
	const op = "cache.RedisShared.Get"
	val, err := c.Db.Get(ctx, decisionPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("%s: %w", op, err)
	}
	var stored storedDecision
	if err = json.Unmarshal(val, &stored); err != nil {
		return Entry{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return Entry{Decision: stored.Decision, StoredAt: stored.StoredAt, ExpiresAt: stored.ExpiresAt}, true, nil
}

// Set сохраняет решение до e.ExpiresAt.
func (c *RedisShared) Set(ctx context.Context, key Key, e Entry, ttl time.Duration) error {
	const op = "cache.RedisShared.Set"
	data, err := json.Marshal(storedDecision{Decision: e.Decision, StoredAt: e.StoredAt, ExpiresAt: e.ExpiresAt})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = c.Db.Set(ctx, decisionPrefix+key.String(), data, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
