package repository

import (
	"context"
	"database/sql"

	"github.com/magabrotheeeer/course-entitlement/internal/models"
	"github.com/magabrotheeeer/course-entitlement/internal/storage"
)

const (
	ruleAllow = "allow"
	ruleBlock = "block"
)

// LoadUser возвращает пользователя вместе с его allow/block-списками.
func (s *Storage) LoadUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.LoadUser"
	select {
	case <-ctx.Done():
		return nil, storage.Classify(op, ctx.Err())
	default:
	}

	query := `SELECT id, email, role, status, access_expires_at
			  FROM users
			  WHERE id = $1`
	u := &models.User{}
	var role, status string
	var accessExpiresAt sql.NullTime
	if err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Email, &role, &status, &accessExpiresAt,
	); err != nil {
		return nil, storage.Classify(op, err)
	}
	u.Role = models.Role(role)
	u.Status = models.UserStatus(status)
	if accessExpiresAt.Valid {
		t := accessExpiresAt.Time.UTC()
		u.AccessExpiresAt = &t
	}

	allowed, blocked, err := s.loadCourseRules(ctx, id)
	if err != nil {
		return nil, storage.Classify(op, err)
	}
	u.AllowedCourses = models.RestrictTo(allowed...)
	u.BlockedCourses = models.NewCourseSet(blocked...)
	return u, nil
}

func (s *Storage) loadCourseRules(ctx context.Context, userID string) (allowed, blocked []string, err error) {
	query := `SELECT course_id, rule
			  FROM user_course_rules
			  WHERE user_id = $1`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var courseID, rule string
		if err = rows.Scan(&courseID, &rule); err != nil {
			return nil, nil, err
		}
		switch rule {
		case ruleAllow:
			allowed = append(allowed, courseID)
		case ruleBlock:
			blocked = append(blocked, courseID)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, nil, err
	}
	return allowed, blocked, nil
}
