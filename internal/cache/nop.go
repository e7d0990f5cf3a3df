package cache

import (
	"context"
	"time"

	"github.com/magabrotheeeer/course-entitlement/internal/models"
)

// Nop кеш, который всегда вычисляет решение заново. Используется в CLI и тестах.
type Nop struct{}

func (Nop) GetOrCompute(ctx context.Context, _, _ string, _ time.Duration, fn ComputeFunc) (models.AccessDecision, error) {
	return fn(ctx)
}

func (Nop) Invalidate(context.Context, string, string) error {
	return nil
}
