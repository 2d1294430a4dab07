package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pelshen/namedraw/internal/installation/domain"
	usagedomain "github.com/pelshen/namedraw/internal/usage/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, installation *domain.Installation) error {
	// Re-installs refresh credentials in place. plan_type is deliberately
	// absent from the update set: billing changes go through UpdatePlan.
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "team_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"team_name", "enterprise_id", "bot_user_id", "bot_token", "raw", "updated_at",
		}),
	}).Create(installation).Error
}

func (r *repo) FindByTeamID(ctx context.Context, db *gorm.DB, teamID string) (*domain.Installation, error) {
	var installation domain.Installation
	err := db.WithContext(ctx).
		Where("team_id = ?", teamID).
		First(&installation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &installation, nil
}

func (r *repo) UpdatePlan(ctx context.Context, db *gorm.DB, teamID string, plan usagedomain.PlanType) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Installation{}).
		Where("team_id = ?", teamID).
		Updates(map[string]any{
			"plan_type":  plan,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

func (r *repo) DeleteByTeamID(ctx context.Context, db *gorm.DB, teamID string) (int64, error) {
	result := db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Delete(&domain.Installation{})
	return result.RowsAffected, result.Error
}
