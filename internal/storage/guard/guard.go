// Package guard оборачивает хранилище предохранителем gobreaker.
// Пока предохранитель разомкнут, обращения к хранилищу сразу завершаются ErrUnavailable.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/magabrotheeeer/course-entitlement/internal/config"
	"github.com/magabrotheeeer/course-entitlement/internal/models"
	"github.com/magabrotheeeer/course-entitlement/internal/storage"
)

// Store источник снимков, который защищает предохранитель.
type Store interface {
	LoadUser(ctx context.Context, id string) (*models.User, error)
	LoadCourse(ctx context.Context, id string) (*models.Course, error)
	LoadSubscriptions(ctx context.Context, userID string) ([]models.Subscription, error)
}

// StateObserver получает смену состояния предохранителя.
type StateObserver interface {
	SetBreakerOpen(name string, open bool)
}

// Guard реализует Store поверх другого Store.
type Guard struct {
	next Store
	cb   *gobreaker.CircuitBreaker[any]
}

// New создаёт Guard. observer может быть nil.
func New(log *slog.Logger, next Store, cfg config.CircuitBreaker, observer StateObserver) *Guard {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:        "store",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Отсутствие записи означает исправное хранилище.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, storage.ErrNotFound)
		},
		// Отмена запроса вызывающей стороной ничего не говорит о здоровье хранилища.
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			if observer != nil {
				observer.SetBreakerOpen(name, to != gobreaker.StateClosed)
			}
		},
	}
	return &Guard{next: next, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// State возвращает текущее состояние предохранителя.
func (g *Guard) State() gobreaker.State {
	return g.cb.State()
}

// LoadUser загружает пользователя через предохранитель.
func (g *Guard) LoadUser(ctx context.Context, id string) (*models.User, error) {
	return execute(g.cb, "guard.LoadUser", func() (*models.User, error) {
		return g.next.LoadUser(ctx, id)
	})
}

// LoadCourse загружает курс через предохранитель.
func (g *Guard) LoadCourse(ctx context.Context, id string) (*models.Course, error) {
	return execute(g.cb, "guard.LoadCourse", func() (*models.Course, error) {
		return g.next.LoadCourse(ctx, id)
	})
}

// LoadSubscriptions загружает подписки через предохранитель.
func (g *Guard) LoadSubscriptions(ctx context.Context, userID string) ([]models.Subscription, error) {
	return execute(g.cb, "guard.LoadSubscriptions", func() ([]models.Subscription, error) {
		return g.next.LoadSubscriptions(ctx, userID)
	})
}

func execute[T any](cb *gobreaker.CircuitBreaker[any], op string, fn func() (T, error)) (T, error) {
	var zero T
	res, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%s: %w: %w", op, storage.ErrUnavailable, err)
	}
	if err != nil {
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}
