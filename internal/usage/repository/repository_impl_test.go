package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	usagedomain "github.com/pelshen/namedraw/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) (usagedomain.Repository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&usagedomain.UsageRecord{}))
	return NewRepository(db), db
}

func seedRecord(t *testing.T, repo usagedomain.Repository, count int) {
	t.Helper()
	created := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(context.Background(), &usagedomain.UsageRecord{
		UserID:     "U1",
		TeamID:     "T1",
		Period:     "2025-08",
		UsageCount: count,
		PlanType:   usagedomain.PlanFree,
		LastUsedAt: &created,
		CreatedAt:  created,
	}))
}

func TestIncrement_ReturnsTheRowItWrote(t *testing.T) {
	repo, db := newTestRepo(t)
	seedRecord(t, repo, 1)

	// A concurrent writer bumps the counter between our read and our
	// update; the returned row must reflect the database, not a stale
	// snapshot.
	require.NoError(t, db.Model(&usagedomain.UsageRecord{}).
		Where("user_id = ? AND team_id = ? AND period = ?", "U1", "T1", "2025-08").
		Update("usage_count", 4).Error)

	now := time.Date(2025, 8, 14, 10, 30, 0, 0, time.UTC)
	updated, err := repo.Increment(context.Background(), "U1", "T1", "2025-08", usagedomain.PlanPaid, now)
	require.NoError(t, err)

	assert.Equal(t, 5, updated.UsageCount)
	assert.Equal(t, usagedomain.PlanPaid, updated.PlanType)
	require.NotNil(t, updated.LastUsedAt)
	assert.True(t, updated.LastUsedAt.Equal(now))

	stored, err := repo.Get(context.Background(), "U1", "T1", "2025-08")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 5, stored.UsageCount)
}

func TestIncrement_MissingRowIsTyped(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Increment(context.Background(), "U1", "T1", "2025-08", usagedomain.PlanFree, time.Now().UTC())
	require.ErrorIs(t, err, usagedomain.ErrUsageNotFound)
}

func TestIncrement_ScopedToPeriod(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedRecord(t, repo, 3)

	_, err := repo.Increment(context.Background(), "U1", "T1", "2025-09", usagedomain.PlanFree, time.Now().UTC())
	require.ErrorIs(t, err, usagedomain.ErrUsageNotFound)

	stored, err := repo.Get(context.Background(), "U1", "T1", "2025-08")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 3, stored.UsageCount)
}
