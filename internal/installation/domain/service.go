package domain

import (
	"context"
	"errors"

	usagedomain "github.com/pelshen/namedraw/internal/usage/domain"
)

type SaveInstallationRequest struct {
	TeamID       string
	TeamName     string
	EnterpriseID string
	BotUserID    string
	BotToken     string
	Raw          map[string]any
}

type Service interface {
	// Save upserts the install record for a workspace; re-installs
	// refresh the credentials but keep the existing plan.
	Save(context.Context, SaveInstallationRequest) (Installation, error)

	GetByTeamID(ctx context.Context, teamID string) (Installation, error)

	// PlanForTeam resolves the billing tier gate checks run under.
	// An unknown workspace is treated as FREE, never an error.
	PlanForTeam(ctx context.Context, teamID string) (usagedomain.PlanType, error)

	SetPlan(ctx context.Context, teamID string, plan usagedomain.PlanType) error

	// Remove drops the record after an app_uninstalled event.
	Remove(ctx context.Context, teamID string) error
}

var (
	ErrInvalidTeam  = errors.New("invalid_team")
	ErrInvalidToken = errors.New("invalid_token")
	ErrInvalidPlan  = errors.New("invalid_plan")
	ErrNotFound     = errors.New("not_found")
)
