package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Scope область инвалидации.
type Scope string

const (
	ScopeUser   Scope = "user"
	ScopeCourse Scope = "course"
	ScopePair   Scope = "pair"
	ScopeGlobal Scope = "global"
)

// ScopeOf определяет область инвалидации по переданным идентификаторам.
// Для пары пользователь-курс поднимается версия пользователя: это надмножество пары.
func ScopeOf(userID, courseID string) Scope {
	switch {
	case userID != "" && courseID != "":
		return ScopePair
	case userID != "":
		return ScopeUser
	case courseID != "":
		return ScopeCourse
	default:
		return ScopeGlobal
	}
}

// Versions хранит счётчики версий данных. Любое изменение пользователя, его подписки
// или курса поднимает соответствующий счётчик, и старые ключи кеша становятся недостижимы.
type Versions interface {
	Current(ctx context.Context, userID, courseID string) (string, error)
	BumpUser(ctx context.Context, userID string) error
	BumpCourse(ctx context.Context, courseID string) error
	BumpGlobal(ctx context.Context) error
}

func formatVersion(global, user, course int64) string {
	return fmt.Sprintf("g%d.u%d.c%d", global, user, course)
}

// MemoryVersions счётчики в памяти процесса.
type MemoryVersions struct {
	mu      sync.Mutex
	global  int64
	users   map[string]int64
	courses map[string]int64
}

// NewMemoryVersions создаёт пустые счётчики.
func NewMemoryVersions() *MemoryVersions {
	return &MemoryVersions{
		users:   make(map[string]int64),
		courses: make(map[string]int64),
	}
}

func (v *MemoryVersions) Current(_ context.Context, userID, courseID string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return formatVersion(v.global, v.users[userID], v.courses[courseID]), nil
}

func (v *MemoryVersions) BumpUser(_ context.Context, userID string) error {
	v.mu.Lock()
	v.users[userID]++
	v.mu.Unlock()
	return nil
}

func (v *MemoryVersions) BumpCourse(_ context.Context, courseID string) error {
	v.mu.Lock()
	v.courses[courseID]++
	v.mu.Unlock()
	return nil
}

func (v *MemoryVersions) BumpGlobal(_ context.Context) error {
	v.mu.Lock()
	v.global++
	v.mu.Unlock()
	return nil
}

const (
	versionPrefix    = "entitlement:v:"
	globalVersionKey = versionPrefix + "global"
)

func userVersionKey(id string) string   { return versionPrefix + "user:" + id }
func courseVersionKey(id string) string { return versionPrefix + "course:" + id }

// RedisVersions счётчики в redis, общие для всех экземпляров сервиса.
type RedisVersions struct {
	Db *redis.Client
}

// NewRedisVersions создаёт счётчики поверх клиента.
func NewRedisVersions(db *redis.Client) *RedisVersions {
	return &RedisVersions{Db: db}
}

func (v *RedisVersions) Current(ctx context.Context, userID, courseID string) (string, error) {
	const op = "cache.RedisVersions.Current"
	vals, err := v.Db.MGet(ctx, globalVersionKey, userVersionKey(userID), courseVersionKey(courseID)).Result()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	nums := make([]int64, len(vals))
	for i, raw := range vals {
		if raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("%s: unexpected value type %T", op, raw)
		}
		if nums[i], err = strconv.ParseInt(s, 10, 64); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}
	return formatVersion(nums[0], nums[1], nums[2]), nil
}

func (v *RedisVersions) BumpUser(ctx context.Context, userID string) error {
	return v.incr(ctx, "cache.RedisVersions.BumpUser", userVersionKey(userID))
}

func (v *RedisVersions) BumpCourse(ctx context.Context, courseID string) error {
	return v.incr(ctx, "cache.RedisVersions.BumpCourse", courseVersionKey(courseID))
}

func (v *RedisVersions) BumpGlobal(ctx context.Context) error {
	return v.incr(ctx, "cache.RedisVersions.BumpGlobal", globalVersionKey)
}

func (v *RedisVersions) incr(ctx context.Context, op, key string) error {
	if err := v.Db.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
