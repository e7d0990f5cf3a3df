// Package storage описывает ошибки внешнего хранилища пользователей, курсов и подписок.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrNotFound запись отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable хранилище недоступно, операцию можно повторить.
	ErrUnavailable = errors.New("storage unavailable")
)

// Classify приводит ошибку драйвера к таксономии пакета, сохраняя исходную причину.
func Classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnavailable):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
}
