package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/pelshen/namedraw/internal/clock"
	"github.com/pelshen/namedraw/internal/installation/domain"
	"github.com/pelshen/namedraw/internal/installation/repository"
	usagedomain "github.com/pelshen/namedraw/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Installation{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, time.August, 14, 10, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc, db
}

func TestSave_NewWorkspaceDefaultsToFree(t *testing.T) {
	svc, _ := newTestService(t)

	saved, err := svc.Save(context.Background(), domain.SaveInstallationRequest{
		TeamID:    "T123",
		TeamName:  "Acme",
		BotUserID: "B999",
		BotToken:  "xoxb-token",
		Raw:       map[string]any{"scope": "commands,chat:write"},
	})
	require.NoError(t, err)

	assert.Equal(t, usagedomain.PlanFree, saved.PlanType)
	assert.NotZero(t, saved.ID)

	got, err := svc.GetByTeamID(context.Background(), "T123")
	require.NoError(t, err)
	assert.Equal(t, "xoxb-token", got.BotToken)
	assert.Equal(t, "Acme", got.TeamName)
}

func TestSave_ReinstallKeepsPlan(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Save(context.Background(), domain.SaveInstallationRequest{
		TeamID: "T123", BotToken: "xoxb-old",
	})
	require.NoError(t, err)
	require.NoError(t, svc.SetPlan(context.Background(), "T123", usagedomain.PlanPaid))

	_, err = svc.Save(context.Background(), domain.SaveInstallationRequest{
		TeamID: "T123", BotToken: "xoxb-new",
	})
	require.NoError(t, err)

	got, err := svc.GetByTeamID(context.Background(), "T123")
	require.NoError(t, err)
	assert.Equal(t, "xoxb-new", got.BotToken)
	assert.Equal(t, usagedomain.PlanPaid, got.PlanType,
		"re-install must not reset a paid workspace to free")
}

func TestSave_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Save(context.Background(), domain.SaveInstallationRequest{BotToken: "xoxb"})
	assert.ErrorIs(t, err, domain.ErrInvalidTeam)

	_, err = svc.Save(context.Background(), domain.SaveInstallationRequest{TeamID: "T123"})
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestPlanForTeam_UnknownWorkspaceIsFree(t *testing.T) {
	svc, _ := newTestService(t)

	plan, err := svc.PlanForTeam(context.Background(), "T404")
	require.NoError(t, err)
	assert.Equal(t, usagedomain.PlanFree, plan)
}

func TestSetPlan(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Save(context.Background(), domain.SaveInstallationRequest{
		TeamID: "T123", BotToken: "xoxb",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetPlan(context.Background(), "T123", usagedomain.PlanPaid))

	plan, err := svc.PlanForTeam(context.Background(), "T123")
	require.NoError(t, err)
	assert.Equal(t, usagedomain.PlanPaid, plan)

	assert.ErrorIs(t, svc.SetPlan(context.Background(), "T404", usagedomain.PlanPaid), domain.ErrNotFound)
	assert.ErrorIs(t, svc.SetPlan(context.Background(), "T123", usagedomain.PlanType("TRIAL")), domain.ErrInvalidPlan)
}

func TestRemove(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Save(context.Background(), domain.SaveInstallationRequest{
		TeamID: "T123", BotToken: "xoxb",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), "T123"))

	_, err = svc.GetByTeamID(context.Background(), "T123")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Removing an already absent workspace is a no-op.
	require.NoError(t, svc.Remove(context.Background(), "T123"))
}
