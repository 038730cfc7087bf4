package announcement_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/m1chalz/AI-First-sub005/internal/announcement"
	"github.com/m1chalz/AI-First-sub005/internal/db"
)

// setupTestDB starts a PostgreSQL container and applies the migrations.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION is not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("petspot_test"),
		postgres.WithUsername("petspot"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, db.Migrate(dsn, zap.NewNop()))

	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func newAnnouncement() *announcement.Announcement {
	name := "Mruczek"
	return &announcement.Announcement{
		ID:                     uuid.NewString(),
		PetName:                &name,
		Species:                announcement.SpeciesCat,
		Sex:                    announcement.SexUnknown,
		Location:               &announcement.Location{Latitude: 50.06, Longitude: 19.94},
		LastSeenDate:           time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Email:                  "owner@example.com",
		Phone:                  "+48 123 456 789",
		Status:                 announcement.StatusActive,
		ManagementPasswordHash: "$2a$04$hash",
	}
}

func TestPgxRepository(t *testing.T) {
	pool := setupTestDB(t)
	repo := announcement.NewPgxRepository(pool)
	ctx := context.Background()

	a := newAnnouncement()
	require.NoError(t, repo.Create(ctx, a))
	assert.False(t, a.CreatedAt.IsZero())

	t.Run("GetByID", func(t *testing.T) {
		got, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		assert.Equal(t, *a.PetName, *got.PetName)
		require.NotNil(t, got.Location)
		assert.InDelta(t, 50.06, got.Location.Latitude, 1e-9)
		assert.Nil(t, got.PhotoURL)
		assert.Equal(t, "2024-01-10", got.LastSeenDate.Format(announcement.DateLayout))
	})

	t.Run("GetByID: Unknown and malformed ids", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, announcement.ErrNotFound)
		_, err = repo.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, announcement.ErrNotFound)
	})

	t.Run("List: Newest first", func(t *testing.T) {
		b := newAnnouncement()
		require.NoError(t, repo.Create(ctx, b))

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, b.ID, list[0].ID)
	})

	t.Run("UpdatePhoto: Check aborts", func(t *testing.T) {
		abort := errors.New("abort")
		_, err := repo.UpdatePhoto(ctx, a.ID, "k.png", func(*announcement.Announcement) error { return abort })
		assert.ErrorIs(t, err, abort)

		got, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Nil(t, got.PhotoURL)
	})

	t.Run("UpdatePhoto: Row lock serializes checks", func(t *testing.T) {
		taken := errors.New("taken")
		keys := []string{"a.png", "b.png"}
		errs := make([]error, len(keys))

		var wg sync.WaitGroup
		for i, key := range keys {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = repo.UpdatePhoto(ctx, a.ID, key, func(locked *announcement.Announcement) error {
					if locked.HasPhoto() {
						return taken
					}
					return nil
				})
			}()
		}
		wg.Wait()

		failures := 0
		for _, err := range errs {
			if err != nil {
				assert.ErrorIs(t, err, taken)
				failures++
			}
		}
		assert.Equal(t, 1, failures)
	})

	t.Run("Delete returns the photo key", func(t *testing.T) {
		key, err := repo.Delete(ctx, a.ID)
		require.NoError(t, err)
		require.NotNil(t, key)
		assert.Contains(t, []string{"a.png", "b.png"}, *key)

		_, err = repo.Delete(ctx, a.ID)
		assert.ErrorIs(t, err, announcement.ErrNotFound)
	})
}
