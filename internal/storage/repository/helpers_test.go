package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/course-entitlement/internal/migrations"
)

// testDataFactory наполняет тестовую БД.
type testDataFactory struct {
	storage *Storage
}

func newTestDataFactory(storage *Storage) *testDataFactory {
	return &testDataFactory{storage: storage}
}

func (f *testDataFactory) createUser(t *testing.T, id, role, status string, accessExpiresAt *time.Time) {
	t.Helper()
	_, err := f.storage.DB.Exec(`INSERT INTO users (id, email, role, status, access_expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, id+"@example.com", role, status, accessExpiresAt)
	require.NoError(t, err)
}

func (f *testDataFactory) createCourse(t *testing.T, id, title string, isFree bool, price float64, categories ...string) {
	t.Helper()
	_, err := f.storage.DB.Exec(`INSERT INTO courses (id, title, is_free, price) VALUES ($1, $2, $3, $4)`,
		id, title, isFree, price)
	require.NoError(t, err)
	for _, c := range categories {
		_, err = f.storage.DB.Exec(`INSERT INTO course_categories (course_id, category_id) VALUES ($1, $2)`, id, c)
		require.NoError(t, err)
	}
}

func (f *testDataFactory) createSubscription(t *testing.T, id, userID, status string,
	trialEndsAt *time.Time, periodEnd, createdAt time.Time) {
	t.Helper()
	_, err := f.storage.DB.Exec(`INSERT INTO subscriptions
		(id, user_id, status, trial_ends_at, current_period_end, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, userID, status, trialEndsAt, periodEnd, createdAt)
	require.NoError(t, err)
}

func (f *testDataFactory) createCourseRule(t *testing.T, userID, courseID string, allow bool) {
	t.Helper()
	rule := ruleBlock
	if allow {
		rule = ruleAllow
	}
	_, err := f.storage.DB.Exec(`INSERT INTO user_course_rules (user_id, course_id, rule)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_id, rule) DO NOTHING`,
		userID, courseID, rule)
	require.NoError(t, err)
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции проекта.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err)

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))

	cleanup := func() {
		_ = storage.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}
