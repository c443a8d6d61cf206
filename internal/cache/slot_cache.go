// Package cache хранит выведенных кандидатов в слоты, чтобы не разворачивать
// правила юриста на каждый запрос списка слотов.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "slots"

// RedisSlotCache кэширует кандидатов по ключу (юрист, окно, сегодня, версия).
// Invalidate увеличивает версию юриста, поэтому старые записи просто истекают по TTL.
type RedisSlotCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisSlotCache(client redis.Cmdable, ttl time.Duration) *RedisSlotCache {
	return &RedisSlotCache{
		client: client,
		ttl:    ttl,
	}
}

// Get возвращает кандидатов окна и версию кэша юриста, прочитанную до поиска.
// При промахе эту версию нужно передать в Set.
func (c *RedisSlotCache) Get(ctx context.Context, lawyerID uuid.UUID, from, to, today schedule.Date) ([]schedule.SlotCandidate, int64, bool, error) {
	version, err := c.version(ctx, lawyerID)
	if err != nil {
		return nil, 0, false, err
	}

	data, err := c.client.Get(ctx, windowKey(lawyerID, version, from, to, today)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, version, false, nil
	}
	if err != nil {
		return nil, version, false, fmt.Errorf("get cached slots: %w", err)
	}

	var candidates []schedule.SlotCandidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, version, false, fmt.Errorf("decode cached slots: %w", err)
	}

	return candidates, version, true, nil
}

// Set сохраняет кандидатов под версией, полученной из Get. Если между ними
// прошёл Invalidate, запись попадает под устаревшую версию и не читается.
func (c *RedisSlotCache) Set(ctx context.Context, lawyerID uuid.UUID, version int64, from, to, today schedule.Date, candidates []schedule.SlotCandidate) error {
	if candidates == nil {
		candidates = []schedule.SlotCandidate{}
	}

	data, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("encode slots: %w", err)
	}

	if err := c.client.Set(ctx, windowKey(lawyerID, version, from, to, today), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached slots: %w", err)
	}

	return nil
}

func (c *RedisSlotCache) Invalidate(ctx context.Context, lawyerID uuid.UUID) error {
	if err := c.client.Incr(ctx, versionKey(lawyerID)).Err(); err != nil {
		return fmt.Errorf("bump slot cache version: %w", err)
	}
	return nil
}

func (c *RedisSlotCache) version(ctx context.Context, lawyerID uuid.UUID) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(lawyerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get slot cache version: %w", err)
	}
	return v, nil
}

func versionKey(lawyerID uuid.UUID) string {
	return fmt.Sprintf("%s:ver:%s", keyPrefix, lawyerID)
}

func windowKey(lawyerID uuid.UUID, version int64, from, to, today schedule.Date) string {
	return fmt.Sprintf("%s:%s:v%d:%s:%s:%s", keyPrefix, lawyerID, version, from, to, today)
}

// Nop не кэширует ничего. Используется без REDIS_ADDR.
type Nop struct{}

func (Nop) Get(context.Context, uuid.UUID, schedule.Date, schedule.Date, schedule.Date) ([]schedule.SlotCandidate, int64, bool, error) {
	return nil, 0, false, nil
}

func (Nop) Set(context.Context, uuid.UUID, int64, schedule.Date, schedule.Date, schedule.Date, []schedule.SlotCandidate) error {
	return nil
}

func (Nop) Invalidate(context.Context, uuid.UUID) error { return nil }
