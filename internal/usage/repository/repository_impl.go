package repository

import (
	"context"
	"errors"
	"time"

	usagedomain "github.com/pelshen/namedraw/internal/usage/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) usagedomain.Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, userID, teamID, period string) (*usagedomain.UsageRecord, error) {
	var record usagedomain.UsageRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND team_id = ? AND period = ?", userID, teamID, period).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Increment is a single UPDATE so concurrent draws never lose counts.
// RowsAffected == 0 means the row does not exist yet. RETURNING hands
// back the post-update row in the same statement, so each writer sees
// its own count rather than whichever landed last.
func (r *Repository) Increment(ctx context.Context, userID, teamID, period string, plan usagedomain.PlanType, now time.Time) (*usagedomain.UsageRecord, error) {
	var record usagedomain.UsageRecord
	result := r.db.WithContext(ctx).
		Model(&record).
		Clauses(clause.Returning{}).
		Where("user_id = ? AND team_id = ? AND period = ?", userID, teamID, period).
		Updates(map[string]any{
			"usage_count":  gorm.Expr("usage_count + ?", 1),
			"last_used_at": now,
			"plan_type":    plan,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, usagedomain.ErrUsageNotFound
	}
	if record.UserID == "" {
		// Dialect without RETURNING (mysql); settle for a re-read.
		return r.Get(ctx, userID, teamID, period)
	}

	return &record, nil
}

func (r *Repository) Create(ctx context.Context, record *usagedomain.UsageRecord) error {
	if record == nil {
		return errors.New("missing_usage_record")
	}
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *Repository) DeletePeriodsBefore(ctx context.Context, period string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("period < ?", period).
		Delete(&usagedomain.UsageRecord{})
	return result.RowsAffected, result.Error
}
