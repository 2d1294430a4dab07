package domain

import (
	"context"

	usagedomain "github.com/pelshen/namedraw/internal/usage/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, installation *Installation) error
	FindByTeamID(ctx context.Context, db *gorm.DB, teamID string) (*Installation, error)
	UpdatePlan(ctx context.Context, db *gorm.DB, teamID string, plan usagedomain.PlanType) (int64, error)
	DeleteByTeamID(ctx context.Context, db *gorm.DB, teamID string) (int64, error)
}
