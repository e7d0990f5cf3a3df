package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/magabrotheeeer/course-entitlement/internal/lib/clock"
	"github.com/magabrotheeeer/course-entitlement/internal/lib/sl"
	"github.com/magabrotheeeer/course-entitlement/internal/metrics"
	"github.com/magabrotheeeer/course-entitlement/internal/models"
)

// Key ключ решения: пользователь, курс и версия данных на момент чтения.
type Key struct {
	UserID   string
	CourseID string
	Version  string
}

// String кодирует ключ однозначно: идентификаторы идут с префиксом длины,
// поэтому разделитель внутри идентификатора не склеивает разные пары.
func (k Key) String() string {
	return fmt.Sprintf("%d:%s|%d:%s|%s", len(k.UserID), k.UserID, len(k.CourseID), k.CourseID, k.Version)
}

// Entry сохранённое решение.
type Entry struct {
	Decision  models.AccessDecision
	StoredAt  time.Time
	ExpiresAt time.Time
}

// ComputeFunc вычисляет решение при промахе кеша.
type ComputeFunc func(ctx context.Context) (models.AccessDecision, error)

// Shared общий уровень кеша, разделяемый экземплярами сервиса.
type Shared interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Set(ctx context.Context, key Key, e Entry, ttl time.Duration) error
}

// Recorder принимает результаты обращений к кешу.
type Recorder interface {
	RecordCache(result string)
}

// Options зависимости кеша. Пустые поля заменяются значениями по умолчанию:
// системные часы и счётчики версий в памяти.
type Options struct {
	Clock        clock.Clock
	Versions     Versions
	Shared       Shared
	RefreshAhead time.Duration
	Recorder     Recorder
}

// DecisionCache кеш решений о доступе.
//
// Запись отдаётся до истечения TTL. В последние RefreshAhead перед истечением
// запись ещё отдаётся, но запускается фоновое обновление. Одновременные промахи
// по одному ключу делят одно вычисление. Ошибки вычисления не кешируются.
type DecisionCache struct {
	log          *slog.Logger
	clock        clock.Clock
	versions     Versions
	shared       Shared
	refreshAhead time.Duration
	recorder     Recorder

	mu      sync.RWMutex
	entries map[Key]Entry
	group   singleflight.Group
}

// New создаёт кеш решений.
func New(log *slog.Logger, opts Options) *DecisionCache {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Versions == nil {
		opts.Versions = NewMemoryVersions()
	}
	return &DecisionCache{
		log:          log,
		clock:        opts.Clock,
		versions:     opts.Versions,
		shared:       opts.Shared,
		refreshAhead: opts.RefreshAhead,
		recorder:     opts.Recorder,
		entries:      make(map[Key]Entry),
	}
}

// GetOrCompute возвращает решение для пары пользователь-курс из кеша или вычисляет его через fn.
// Если счётчики версий недоступны, решение вычисляется без кеша.
func (c *DecisionCache) GetOrCompute(
	ctx context.Context, userID, courseID string, ttl time.Duration, fn ComputeFunc,
) (models.AccessDecision, error) {
	const op = "cache.GetOrCompute"
	log := c.log.With(sl.Op(op), slog.String("user_id", userID), slog.String("course_id", courseID))

	version, err := c.versions.Current(ctx, userID, courseID)
	if err != nil {
		log.Warn("version store unavailable, computing without cache", sl.Err(err))
		c.record(metrics.CacheBypass)
		return fn(ctx)
	}
	key := Key{UserID: userID, CourseID: courseID, Version: version}

	now := c.clock.Now()
	if e, ok := c.lookup(key, now); ok {
		if c.isStale(e, now) {
			c.record(metrics.CacheStale)
			c.refresh(ctx, key, ttl, fn)
		} else {
			c.record(metrics.CacheHit)
		}
		return e.Decision, nil
	}

	if e, ok := c.lookupShared(ctx, log, key, now); ok {
		c.record(metrics.CacheHit)
		return e.Decision, nil
	}

	c.record(metrics.CacheMiss)
	ch := c.group.DoChan(key.String(), c.computeAndStore(ctx, key, ttl, fn))
	select {
	case res := <-ch:
		if res.Err != nil {
			return models.AccessDecision{}, res.Err
		}
		return res.Val.(models.AccessDecision), nil
	case <-ctx.Done():
		return models.AccessDecision{}, fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

// Invalidate поднимает версию данных для области, заданной идентификаторами,
// и удаляет затронутые локальные записи. Пустые оба идентификатора сбрасывают весь кеш.
func (c *DecisionCache) Invalidate(ctx context.Context, userID, courseID string) error {
	const op = "cache.Invalidate"

	var err error
	switch ScopeOf(userID, courseID) {
	case ScopeUser, ScopePair:
		err = c.versions.BumpUser(ctx, userID)
	case ScopeCourse:
		err = c.versions.BumpCourse(ctx, courseID)
	case ScopeGlobal:
		err = c.versions.BumpGlobal(ctx)
	}
	c.drop(userID, courseID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Prune удаляет истёкшие записи и возвращает их количество.
func (c *DecisionCache) Prune() int {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.ExpiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len количество локальных записей, включая истёкшие.
func (c *DecisionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *DecisionCache) lookup(key Key, now time.Time) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !now.Before(e.ExpiresAt) {
		return Entry{}, false
	}
	return e, true
}

func (c *DecisionCache) lookupShared(ctx context.Context, log *slog.Logger, key Key, now time.Time) (Entry, bool) {
	if c.shared == nil {
		return Entry{}, false
	}
	e, ok, err := c.shared.Get(ctx, key)
	if err != nil {
		log.Warn("shared cache read failed", sl.Err(err))
		return Entry{}, false
	}
	if !ok || !now.Before(e.ExpiresAt) || c.isStale(e, now) {
		return Entry{}, false
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return e, true
}

func (c *DecisionCache) isStale(e Entry, now time.Time) bool {
	return c.refreshAhead > 0 && !now.Before(e.ExpiresAt.Add(-c.refreshAhead))
}

// refresh обновляет запись в фоне. Повторные вызовы во время обновления присоединяются к нему.
func (c *DecisionCache) refresh(ctx context.Context, key Key, ttl time.Duration, fn ComputeFunc) {
	ch := c.group.DoChan(key.String(), c.computeAndStore(ctx, key, ttl, fn))
	go func() {
		res := <-ch
		if res.Err != nil && !res.Shared {
			c.log.Warn("background refresh failed",
				sl.Op("cache.refresh"),
				slog.String("key", key.String()),
				sl.Err(res.Err),
			)
		}
	}()
}

// computeAndStore вычисляет решение вне отмены вызывающего: вычисление делят
// несколько запросов, и уход одного из них не должен прерывать остальных.
func (c *DecisionCache) computeAndStore(ctx context.Context, key Key, ttl time.Duration, fn ComputeFunc) func() (any, error) {
	detached := context.WithoutCancel(ctx)
	return func() (any, error) {
		d, err := fn(detached)
		if err != nil {
			return nil, err
		}
		now := c.clock.Now()
		e := Entry{Decision: d, StoredAt: now, ExpiresAt: now.Add(ttl)}
		c.mu.Lock()
		c.entries[key] = e
		c.mu.Unlock()
		if c.shared != nil {
			if err = c.shared.Set(detached, key, e, ttl); err != nil {
				c.log.Warn("shared cache write failed", sl.Op("cache.computeAndStore"), sl.Err(err))
			}
		}
		return d, nil
	}
}

func (c *DecisionCache) drop(userID, courseID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if matches(k, userID, courseID) {
			delete(c.entries, k)
		}
	}
}

func matches(k Key, userID, courseID string) bool {
	switch ScopeOf(userID, courseID) {
	case ScopeUser, ScopePair:
		return k.UserID == userID
	case ScopeCourse:
		return k.CourseID == courseID
	default:
		return true
	}
}

func (c *DecisionCache) record(result string) {
	if c.recorder != nil {
		c.recorder.RecordCache(result)
	}
}
