// Package entitlement реализует сервис принятия решений о доступе к курсам:
// загрузка снимков из хранилища, вычисление статуса подписки, правила доступа и кеш.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/course-entitlement/internal/access"
	"github.com/magabrotheeeer/course-entitlement/internal/cache"
	"github.com/magabrotheeeer/course-entitlement/internal/lib/clock"
	"github.com/magabrotheeeer/course-entitlement/internal/lib/sl"
	"github.com/magabrotheeeer/course-entitlement/internal/models"
	"github.com/magabrotheeeer/course-entitlement/internal/storage"
)

var (
	// ErrInvalidInput не передан идентификатор пользователя или курса.
	ErrInvalidInput = errors.New("user id and course id are required")
	// ErrUnavailable хранилище недоступно, решение не принято. Запрос можно повторить.
	ErrUnavailable = errors.New("entitlement temporarily unavailable")
)

// Store источник снимков пользователя, курса и подписок.
type Store interface {
	LoadUser(ctx context.Context, id string) (*models.User, error)
	LoadCourse(ctx context.Context, id string) (*models.Course, error)
	LoadSubscriptions(ctx context.Context, userID string) ([]models.Subscription, error)
}

// Cache кеш решений.
type Cache interface {
	GetOrCompute(ctx context.Context, userID, courseID string, ttl time.Duration, fn cache.ComputeFunc) (models.AccessDecision, error)
	Invalidate(ctx context.Context, userID, courseID string) error
}

// Metrics получатель метрик сервиса.
type Metrics interface {
	RecordDecision(reason string, canAccess bool)
	ObserveLoad(d time.Duration, err error)
	RecordInvalidation(scope string)
}

// Config параметры сервиса.
type Config struct {
	DecisionTTL time.Duration
	LoadTimeout time.Duration
}

// Inspection решение вместе с производным статусом подписки, для отладки администратором.
type Inspection struct {
	Decision           models.AccessDecision     `json:"decision"`
	SubscriptionStatus models.SubscriptionStatus `json:"subscription_status"`
	EvaluatedAt        time.Time                 `json:"evaluated_at"`
}

// Service сервис решений о доступе.
type Service struct {
	log     *slog.Logger
	store   Store
	cache   Cache
	metrics Metrics
	clock   clock.Clock
	cfg     Config
}

// New создаёт сервис. metrics может быть nil.
func New(log *slog.Logger, store Store, c Cache, metrics Metrics, clk clock.Clock, cfg Config) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{
		log:     log,
		store:   store,
		cache:   c,
		metrics: metrics,
		clock:   clk,
		cfg:     cfg,
	}
}

// CheckAccess возвращает решение о доступе пользователя к курсу.
//
// Отсутствующий пользователь или курс дают отказ с причиной not_found.
// Недоступность хранилища возвращается как ErrUnavailable: доступ в этом случае
// не выдаётся и не запрещается, а решение не кешируется.
func (s *Service) CheckAccess(ctx context.Context, userID, courseID string) (models.AccessDecision, error) {
	const op = "entitlement.CheckAccess"
	userID, courseID = strings.TrimSpace(userID), strings.TrimSpace(courseID)
	if userID == "" || courseID == "" {
		return models.AccessDecision{}, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}
	log := s.log.With(sl.Op(op), slog.String("user_id", userID), slog.String("course_id", courseID))

	decision, err := s.cache.GetOrCompute(ctx, userID, courseID, s.cfg.DecisionTTL, func(ctx context.Context) (models.AccessDecision, error) {
		insp, err := s.evaluate(ctx, userID, courseID)
		return insp.Decision, err
	})
	if err != nil {
		log.Error("failed to check access", sl.Err(err))
		if errors.Is(err, ErrUnavailable) {
			return models.AccessDecision{}, fmt.Errorf("%s: %w", op, err)
		}
		return models.AccessDecision{}, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	s.metrics.RecordDecision(string(decision.Reason), decision.CanAccess)
	log.Debug("access decision",
		slog.Bool("can_access", decision.CanAccess),
		slog.String("reason", string(decision.Reason)),
	)
	return decision, nil
}

// Inspect вычисляет решение без кеша и возвращает также статус подписки.
func (s *Service) Inspect(ctx context.Context, userID, courseID string) (Inspection, error) {
	const op = "entitlement.Inspect"
	userID, courseID = strings.TrimSpace(userID), strings.TrimSpace(courseID)
	if userID == "" || courseID == "" {
		return Inspection{}, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}
	insp, err := s.evaluate(ctx, userID, courseID)
	if err != nil {
		s.log.Error("failed to inspect access", sl.Op(op), slog.String("user_id", userID),
			slog.String("course_id", courseID), sl.Err(err))
		return Inspection{}, fmt.Errorf("%s: %w", op, err)
	}
	return insp, nil
}

// Invalidate сбрасывает кешированные решения. Пустой userID и courseID сбрасывают всё.
// После возврата любой новый CheckAccess вычисляет решение заново.
func (s *Service) Invalidate(ctx context.Context, userID, courseID string) error {
	const op = "entitlement.Invalidate"
	userID, courseID = strings.TrimSpace(userID), strings.TrimSpace(courseID)
	scope := cache.ScopeOf(userID, courseID)
	log := s.log.With(sl.Op(op), slog.String("scope", string(scope)),
		slog.String("user_id", userID), slog.String("course_id", courseID))

	if err := s.cache.Invalidate(ctx, userID, courseID); err != nil {
		log.Error("failed to invalidate", sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	s.metrics.RecordInvalidation(string(scope))
	log.Info("entitlements invalidated")
	return nil
}

func (s *Service) evaluate(ctx context.Context, userID, courseID string) (Inspection, error) {
	const op = "entitlement.evaluate"
	snap, err := s.load(ctx, userID, courseID)
	now := s.clock.Now()
	switch {
	case errors.Is(snap.userErr, storage.ErrNotFound):
		return Inspection{Decision: notFound("User not found."), EvaluatedAt: now}, nil
	case errors.Is(snap.courseErr, storage.ErrNotFound):
		return Inspection{Decision: notFound("Course not found."), EvaluatedAt: now}, nil
	case err != nil:
		return Inspection{}, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	status := access.Resolve(snap.subscriptions, now)
	return Inspection{
		Decision:           access.Evaluate(snap.user, snap.course, status, now),
		SubscriptionStatus: status,
		EvaluatedAt:        now,
	}, nil
}

type snapshot struct {
	user          *models.User
	course        *models.Course
	subscriptions []models.Subscription
	userErr       error
	courseErr     error
}

// load читает три независимых снимка параллельно в пределах LoadTimeout.
func (s *Service) load(ctx context.Context, userID, courseID string) (snapshot, error) {
	if s.cfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.LoadTimeout)
		defer cancel()
	}

	var snap snapshot
	started := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	// NotFound не отменяет остальные загрузки: это ответ, а не сбой.
	g.Go(func() error {
		snap.user, snap.userErr = s.store.LoadUser(gctx, userID)
		if errors.Is(snap.userErr, storage.ErrNotFound) {
			return nil
		}
		return snap.userErr
	})
	g.Go(func() error {
		snap.course, snap.courseErr = s.store.LoadCourse(gctx, courseID)
		if errors.Is(snap.courseErr, storage.ErrNotFound) {
			return nil
		}
		return snap.courseErr
	})
	g.Go(func() error {
		subs, err := s.store.LoadSubscriptions(gctx, userID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		snap.subscriptions = subs
		return err
	})
	err := g.Wait()
	s.metrics.ObserveLoad(time.Since(started), err)
	return snap, err
}

func notFound(message string) models.AccessDecision {
	return models.AccessDecision{CanAccess: false, Reason: models.ReasonNotFound, Message: message}
}

type nopMetrics struct{}

func (nopMetrics) RecordDecision(string, bool)      {}
func (nopMetrics) ObserveLoad(time.Duration, error) {}
func (nopMetrics) RecordInvalidation(string)        {}
