package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/pelshen/namedraw/internal/clock"
	"github.com/pelshen/namedraw/internal/installation/domain"
	usagedomain "github.com/pelshen/namedraw/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("installation.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Save(ctx context.Context, req domain.SaveInstallationRequest) (domain.Installation, error) {
	teamID := strings.TrimSpace(req.TeamID)
	if teamID == "" {
		return domain.Installation{}, domain.ErrInvalidTeam
	}
	if strings.TrimSpace(req.BotToken) == "" {
		return domain.Installation{}, domain.ErrInvalidToken
	}

	raw := datatypes.JSONMap{}
	for k, v := range req.Raw {
		raw[k] = v
	}

	now := s.clock.Now()
	installation := domain.Installation{
		ID:           s.genID.Generate(),
		TeamID:       teamID,
		TeamName:     strings.TrimSpace(req.TeamName),
		EnterpriseID: strings.TrimSpace(req.EnterpriseID),
		BotUserID:    strings.TrimSpace(req.BotUserID),
		BotToken:     req.BotToken,
		PlanType:     usagedomain.PlanFree,
		Raw:          raw,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Upsert(ctx, s.db, &installation); err != nil {
		return domain.Installation{}, err
	}

	s.log.Info("installation saved", zap.String("team_id", teamID))
	return installation, nil
}

func (s *Service) GetByTeamID(ctx context.Context, teamID string) (domain.Installation, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return domain.Installation{}, domain.ErrInvalidTeam
	}

	item, err := s.repo.FindByTeamID(ctx, s.db, teamID)
	if err != nil {
		return domain.Installation{}, err
	}
	if item == nil {
		return domain.Installation{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) PlanForTeam(ctx context.Context, teamID string) (usagedomain.PlanType, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return "", domain.ErrInvalidTeam
	}

	item, err := s.repo.FindByTeamID(ctx, s.db, teamID)
	if err != nil {
		return "", err
	}
	if item == nil || item.PlanType == "" {
		return usagedomain.PlanFree, nil
	}
	return item.PlanType, nil
}

func (s *Service) SetPlan(ctx context.Context, teamID string, plan usagedomain.PlanType) error {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return domain.ErrInvalidTeam
	}
	if plan != usagedomain.PlanFree && plan != usagedomain.PlanPaid {
		return domain.ErrInvalidPlan
	}

	affected, err := s.repo.UpdatePlan(ctx, s.db, teamID, plan)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	s.log.Info("plan updated", zap.String("team_id", teamID), zap.String("plan_type", string(plan)))
	return nil
}

func (s *Service) Remove(ctx context.Context, teamID string) error {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return domain.ErrInvalidTeam
	}

	affected, err := s.repo.DeleteByTeamID(ctx, s.db, teamID)
	if err != nil {
		return err
	}
	if affected > 0 {
		s.log.Info("installation removed", zap.String("team_id", teamID))
	}
	return nil
}
