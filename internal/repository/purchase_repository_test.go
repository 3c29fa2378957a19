package repository_test

import (
	"context"
	"testing"
	"time"

	"learnhire_backend/internal/config"
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/repository"
	"learnhire_backend/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPurchaseRepo(t *testing.T) *repository.PurchaseRepository {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, false)
	require.NoError(t, err)
	return repository.NewPurchaseRepository(db)
}

func TestPurchaseRepository_Transitions(t *testing.T) {
	ctx := context.Background()
	repo := newPurchaseRepo(t)

	p := &model.Purchase{CourseID: "c1", UserID: "u1", Amount: 80, Currency: "usd"}
	require.NoError(t, repo.Create(ctx, p))
	require.NotEmpty(t, p.ID)

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PurchasePending, stored.Status)

	require.NoError(t, repo.SetSessionID(ctx, p.ID, "cs_123"))

	at := time.Date(2024, time.April, 1, 12, 0, 0, 0, time.UTC)
	moved, err := repo.MarkCompleted(ctx, p.ID, at)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = repo.MarkCompleted(ctx, p.ID, at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, moved, "completion is applied once")

	moved, err = repo.MarkFailed(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, moved, "completed purchases cannot fail")

	stored, err = repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseCompleted, stored.Status)
	assert.Equal(t, "cs_123", stored.PaymentSessionID)
	require.NotNil(t, stored.CompletedAt)
	assert.True(t, stored.CompletedAt.Equal(at))

	missing, err := repo.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPurchaseRepository_MarkFailedOnlyFromPending(t *testing.T) {
	ctx := context.Background()
	repo := newPurchaseRepo(t)
	p := &model.Purchase{CourseID: "c1", UserID: "u1", Amount: 10}
	require.NoError(t, repo.Create(ctx, p))

	moved, err := repo.MarkFailed(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = repo.MarkFailed(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestPurchaseRepository_Earnings(t *testing.T) {
	ctx := context.Background()
	repo := newPurchaseRepo(t)

	add := func(course string, amount float64, complete bool, at time.Time) {
		p := &model.Purchase{CourseID: course, UserID: "u", Amount: amount}
		require.NoError(t, repo.Create(ctx, p))
		if complete {
			_, err := repo.MarkCompleted(ctx, p.ID, at)
			require.NoError(t, err)
		}
	}
	base := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	add("c1", 80, true, base)
	add("c1", 80, false, base)
	add("c2", 19.5, true, base.Add(time.Hour))
	add("c3", 1000, true, base)

	total, err := repo.SumCompletedByCourses(ctx, []string{"c1", "c2"})
	require.NoError(t, err)
	assert.InDelta(t, 99.5, total, 0.001)

	total, err = repo.SumCompletedByCourses(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, total)

	list, err := repo.FindCompletedByCourses(ctx, []string{"c1", "c2"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c2", list[0].CourseID, "latest completion first")
}
