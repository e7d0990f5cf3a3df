package repository

import (
	"context"

	"github.com/magabrotheeeer/course-entitlement/internal/models"
	"github.com/magabrotheeeer/course-entitlement/internal/storage"
)

// LoadCourse возвращает курс и его категории.
func (s *Storage) LoadCourse(ctx context.Context, id string) (*models.Course, error) {
	const op = "storage.LoadCourse"
	select {
	case <-ctx.Done():
		return nil, storage.Classify(op, ctx.Err())
	default:
	}

	query := `SELECT id, title, is_free, price::float8
			  FROM courses
			  WHERE id = $1`
	c := &models.Course{}
	if err := s.DB.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Title, &c.IsFree, &c.Price); err != nil {
		return nil, storage.Classify(op, err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT category_id FROM course_categories WHERE course_id = $1 ORDER BY category_id`, id)
	if err != nil {
		return nil, storage.Classify(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var categoryID string
		if err = rows.Scan(&categoryID); err != nil {
			return nil, storage.Classify(op, err)
		}
		c.CategoryIDs = append(c.CategoryIDs, categoryID)
	}
	if err = rows.Err(); err != nil {
		return nil, storage.Classify(op, err)
	}
	return c, nil
}
